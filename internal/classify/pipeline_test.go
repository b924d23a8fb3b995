package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/inboxtriage/internal/gmail"
	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/taxonomy"
)

type fakeGateway struct {
	messages []*gmail.Message
	fetchErr error

	ensureErr     error
	applyErr      error
	createdLabels []string
	applied       map[string][]string // messageID -> labelIDs
}

func (f *fakeGateway) FetchSince(_ context.Context, _, _ int, _ bool) ([]*gmail.Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeGateway) GetDetail(_ context.Context, messageID string) (*gmail.Message, error) {
	for _, m := range f.messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeGateway) EnsureLabel(_ context.Context, name string) (string, error) {
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	f.createdLabels = append(f.createdLabels, name)
	return "id-" + name, nil
}

func (f *fakeGateway) ApplyLabel(_ context.Context, messageID, labelID string) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	if f.applied == nil {
		f.applied = make(map[string][]string)
	}
	f.applied[messageID] = append(f.applied[messageID], labelID)
	return nil
}

func (f *fakeGateway) SendReply(_ context.Context, _, _, _, _ string) error {
	return nil
}

// fakeOracle answers per subject and fails for subjects listed in errs.
type fakeOracle struct {
	answers map[string]string
	errs    map[string]error
	calls   int
}

func (f *fakeOracle) Classify(_ context.Context, _ []taxonomy.Key, subject, _ string) (string, error) {
	f.calls++
	if err, ok := f.errs[subject]; ok {
		return "", err
	}
	if answer, ok := f.answers[subject]; ok {
		return answer, nil
	}
	return "uncategorized", nil
}

func (f *fakeOracle) GenerateReply(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not implemented")
}

type fakeNotifier struct {
	notified []taxonomy.Key
	err      error
}

func (f *fakeNotifier) NotifyImportant(_ context.Context, _ *gmail.Message, category taxonomy.Key) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, category)
	return nil
}

func msg(id, subject string) *gmail.Message {
	return &gmail.Message{
		ID:       id,
		ThreadID: "t-" + id,
		Sender:   "recruiter@example.com",
		Subject:  subject,
		Snippet:  "snippet for " + subject,
	}
}

func TestProcessBatch(t *testing.T) {
	gateway := &fakeGateway{}
	o := &fakeOracle{answers: map[string]string{
		"Interview with Acme": "interview_request",
		"Weekly job digest":   "job_alert",
		"Your order shipped":  "uncategorized",
	}}
	notifier := &fakeNotifier{}

	p := New(gateway, o, notifier, taxonomy.NewSet(taxonomy.DefaultImportant), nil, nil)

	msgs := []*gmail.Message{
		msg("m1", "Interview with Acme"),
		msg("m2", "Weekly job digest"),
		msg("m3", "Your order shipped"),
	}

	results := p.ProcessBatch(context.Background(), msgs)
	require.Len(t, results, 3)

	assert.Equal(t, taxonomy.InterviewRequest, results[0].Category)
	assert.Equal(t, taxonomy.JobAlert, results[1].Category)
	assert.Equal(t, taxonomy.Uncategorized, results[2].Category)

	// Every message got its category label.
	assert.Equal(t, []string{"id-" + taxonomy.Label(taxonomy.InterviewRequest)}, gateway.applied["m1"])
	assert.Equal(t, []string{"id-" + taxonomy.Label(taxonomy.JobAlert)}, gateway.applied["m2"])
	assert.Equal(t, []string{"id-" + taxonomy.Label(taxonomy.Uncategorized)}, gateway.applied["m3"])

	// Only the important category was announced.
	assert.Equal(t, []taxonomy.Key{taxonomy.InterviewRequest}, notifier.notified)
}

func TestProcessBatchOracleFailureIsolated(t *testing.T) {
	gateway := &fakeGateway{}
	o := &fakeOracle{
		answers: map[string]string{"Good one": "rejected"},
		errs:    map[string]error{"Bad one": errors.New("oracle unavailable")},
	}

	p := New(gateway, o, nil, taxonomy.NewSet(taxonomy.DefaultImportant), nil, nil)

	results := p.ProcessBatch(context.Background(), []*gmail.Message{
		msg("m1", "Bad one"),
		msg("m2", "Good one"),
	})

	// The failing message is skipped, the rest of the batch continues.
	require.Len(t, results, 1)
	assert.Equal(t, "m2", results[0].Message.ID)
	assert.Equal(t, taxonomy.Rejected, results[0].Category)
	assert.Equal(t, 2, o.calls)
}

func TestProcessBatchLabelFailureStillNotifies(t *testing.T) {
	gateway := &fakeGateway{ensureErr: errors.New("labels api down")}
	o := &fakeOracle{answers: map[string]string{"Interview slot": "interview_request"}}
	notifier := &fakeNotifier{}

	p := New(gateway, o, notifier, taxonomy.NewSet(taxonomy.DefaultImportant), nil, nil)

	results := p.ProcessBatch(context.Background(), []*gmail.Message{msg("m1", "Interview slot")})

	require.Len(t, results, 1)
	assert.Empty(t, gateway.applied)
	assert.Equal(t, []taxonomy.Key{taxonomy.InterviewRequest}, notifier.notified)
}

func TestProcessBatchNotifierFailureIsLogged(t *testing.T) {
	gateway := &fakeGateway{}
	o := &fakeOracle{answers: map[string]string{"Interview slot": "interview_request"}}
	notifier := &fakeNotifier{err: errors.New("telegram down")}

	p := New(gateway, o, notifier, taxonomy.NewSet(taxonomy.DefaultImportant), nil, nil)

	results := p.ProcessBatch(context.Background(), []*gmail.Message{msg("m1", "Interview slot")})

	// A notification failure does not fail the message.
	require.Len(t, results, 1)
	assert.Equal(t, taxonomy.InterviewRequest, results[0].Category)
}

func TestRunFetchError(t *testing.T) {
	gateway := &fakeGateway{fetchErr: errors.New("gmail unavailable")}
	p := New(gateway, &fakeOracle{}, nil, nil, nil, nil)

	err := p.Run(context.Background(), Pass{Hours: 1, MaxResults: 10, UnreadOnly: true})
	require.Error(t, err)
}

func TestRunEmptyInbox(t *testing.T) {
	gateway := &fakeGateway{}
	o := &fakeOracle{}
	p := New(gateway, o, nil, nil, nil, nil)

	err := p.Run(context.Background(), Pass{Hours: 24, MaxResults: 50})
	require.NoError(t, err)
	assert.Zero(t, o.calls)
}

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want taxonomy.Key
	}{
		{name: "exact key", raw: "interview_request", want: taxonomy.InterviewRequest},
		{name: "exact key with whitespace", raw: "  offer\n", want: taxonomy.Offer},
		{name: "uppercase", raw: "REJECTED", want: taxonomy.Rejected},
		{name: "chatty answer mentions one key", raw: "Category: job_alert", want: taxonomy.JobAlert},
		{
			name: "two mentions pick higher priority",
			raw:  "this could be interview_reminder or interview_request",
			want: taxonomy.InterviewRequest,
		},
		{name: "garbled", raw: "I cannot classify this email.", want: taxonomy.Uncategorized},
		{name: "empty", raw: "", want: taxonomy.Uncategorized},
		{name: "whitespace only", raw: "   ", want: taxonomy.Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveCategory(tt.raw))
		})
	}
}

func TestLabelReuseAcrossBatch(t *testing.T) {
	gateway := &fakeGateway{}
	o := &fakeOracle{answers: map[string]string{}}
	for i := 0; i < 3; i++ {
		o.answers[fmt.Sprintf("Digest %d", i)] = "newsletter"
	}

	p := New(gateway, o, nil, nil, nil, nil)

	var msgs []*gmail.Message
	for i := 0; i < 3; i++ {
		msgs = append(msgs, msg(fmt.Sprintf("m%d", i), fmt.Sprintf("Digest %d", i)))
	}

	results := p.ProcessBatch(context.Background(), msgs)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, taxonomy.Newsletter, r.Category)
	}
}

func TestProcessBatchRecordsOracleCalls(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	gateway := &fakeGateway{}
	o := &fakeOracle{
		answers: map[string]string{"Interview with Acme": "interview_request"},
		errs:    map[string]error{"Broken": errors.New("oracle down")},
	}

	p := New(gateway, o, nil, nil, nil, metrics)

	p.ProcessBatch(context.Background(), []*gmail.Message{
		msg("m1", "Interview with Acme"),
		msg("m2", "Broken"),
	})

	// Both invocations count, the failed one included.
	assert.Equal(t, int64(2), counterSum(t, reader, "oracle_calls_total"))
}

func newTestMetrics(t *testing.T) (*instrumentation.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	m, err := instrumentation.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func counterSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}
