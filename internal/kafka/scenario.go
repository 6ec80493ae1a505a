package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/circuit"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// HeaderRequestID carries the correlation id between a request and its result
const HeaderRequestID = "request-id"

// Worker outcomes recorded per message
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
)

// ScenarioRequest asks for the PnL surface and Greeks of a strategy.
// Market is used as given when present, otherwise it is resolved from Ticker and TimeToExpiry.
type ScenarioRequest struct {
	ID           string              `json:"id"`
	Ticker       string              `json:"ticker"`
	TimeToExpiry float64             `json:"timeToExpiry"`
	Market       *models.MarketState `json:"market,omitempty"`
	Strategy     scenario.Strategy   `json:"strategy"`
}

// ScenarioResult answers one ScenarioRequest
type ScenarioResult struct {
	RequestID   string            `json:"requestId"`
	Surface     *scenario.Surface `json:"surface,omitempty"`
	Greeks      *models.Greeks    `json:"greeks,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorType   string            `json:"errorType,omitempty"`
	CompletedAt time.Time         `json:"completedAt"`
}

// Snapshotter resolves market state for a ticker
type Snapshotter interface {
	Snapshot(ctx context.Context, ticker string, years float64) (models.MarketState, error)
}

type resultPublisher interface {
	ProduceJSON(ctx context.Context, key []byte, value interface{}, headers []MessageHeader) error
	Topic() string
}

// ScenarioWorker turns scenario requests into published results
type ScenarioWorker struct {
	builder  *scenario.Builder
	market   Snapshotter
	results  resultPublisher
	breaker  *circuit.Breaker
	recorder *metrics.Recorder
	log      *logger.Logger
}

// NewScenarioWorker creates a new ScenarioWorker
func NewScenarioWorker(builder *scenario.Builder, market Snapshotter, results *Producer, recorder *metrics.Recorder) *ScenarioWorker {
	return newScenarioWorker(builder, market, results, recorder)
}

func newScenarioWorker(builder *scenario.Builder, market Snapshotter, results resultPublisher, recorder *metrics.Recorder) *ScenarioWorker {
	return &ScenarioWorker{
		builder:  builder,
		market:   market,
		results:  results,
		breaker:  circuit.New("kafka.results", circuit.DefaultConfig()),
		recorder: recorder,
		log:      logger.GetLogger("kafka.scenario"),
	}
}

// Handle evaluates one request message. Domain failures are published as error
// results; only a failed publish is returned so the offset is not committed.
func (w *ScenarioWorker) Handle(ctx context.Context, msg *Message) error {
	var req ScenarioRequest
	decodeErr := json.Unmarshal(msg.Value, &req)

	id := requestID(req.ID, msg)
	log := w.log.With("request_id", id, "offset", msg.Offset)

	result := ScenarioResult{RequestID: id}
	outcome := OutcomeOK

	if decodeErr != nil {
		log.Warnw("Discarding malformed scenario request", "error", decodeErr)
		fail(&result, apperrors.WithType(decodeErr, apperrors.ErrorTypeInvalidInput))
		outcome = OutcomeInvalid
	} else if err := w.evaluate(ctx, req, &result); err != nil {
		log.Errorw("Scenario request failed", "strategy", req.Strategy.Name, "error", err)
		fail(&result, err)
		outcome = OutcomeFailed
	}
	result.CompletedAt = time.Now().UTC()

	headers := []MessageHeader{{Key: HeaderRequestID, Value: []byte(id)}}
	publish := func(ctx context.Context) error {
		return w.results.ProduceJSON(ctx, []byte(id), result, headers)
	}
	if err := w.breaker.Execute(ctx, publish); err != nil {
		w.recorder.RecordWorkerMessage(msg.Topic, OutcomeFailed)
		return err
	}

	w.recorder.RecordWorkerMessage(msg.Topic, outcome)
	log.Infow("Scenario result published", "topic", w.results.Topic(), "outcome", outcome)
	return nil
}

func (w *ScenarioWorker) evaluate(ctx context.Context, req ScenarioRequest, result *ScenarioResult) error {
	var state models.MarketState
	if req.Market != nil {
		state = *req.Market
		if state.Ticker == "" {
			state.Ticker = req.Ticker
		}
	} else {
		var err error
		state, err = w.market.Snapshot(ctx, req.Ticker, req.TimeToExpiry)
		if err != nil {
			return err
		}
	}

	surface, err := w.builder.Surface(ctx, state, req.Strategy)
	if err != nil {
		return err
	}
	greeks, err := scenario.StrategyGreeks(state, req.Strategy)
	if err != nil {
		return err
	}

	result.Surface = &surface
	result.Greeks = &greeks
	return nil
}

func fail(result *ScenarioResult, err error) {
	result.Error = err.Error()
	result.ErrorType = apperrors.TypeOf(err).String()
}

func requestID(id string, msg *Message) string {
	if id != "" {
		return id
	}
	if h, ok := msg.Header(HeaderRequestID); ok && h != "" {
		return h
	}
	return uuid.New().String()
}
