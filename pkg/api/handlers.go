package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rzzdr/option-scenario-engine/internal/pricing"
	"github.com/rzzdr/option-scenario-engine/internal/scenario"
	"github.com/rzzdr/option-scenario-engine/internal/volatility"
	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// MarketInput either carries the market state or names the ticker and expiry to resolve it from
type MarketInput struct {
	Ticker       string              `json:"ticker"`
	TimeToExpiry float64             `json:"timeToExpiry"`
	Market       *models.MarketState `json:"market,omitempty"`
}

// OptionRequest prices a single option
type OptionRequest struct {
	MarketInput
	Model      string                `json:"model"`
	Type       models.OptionType     `json:"type"`
	Strike     float64               `json:"strike"`
	ImpliedVol float64               `json:"impliedVol"`
	Style      *models.ExerciseStyle `json:"style,omitempty"`
	Steps      int                   `json:"steps,omitempty"`
}

// PriceResponse is the answer to /price
type PriceResponse struct {
	Model  string             `json:"model"`
	Type   models.OptionType  `json:"type"`
	Price  float64            `json:"price"`
	Market models.MarketState `json:"market"`
}

// GreeksResponse is the answer to /greeks and /strategy-greeks
type GreeksResponse struct {
	Model    string             `json:"model"`
	Strategy string             `json:"strategy,omitempty"`
	Greeks   models.Greeks      `json:"greeks"`
	Market   models.MarketState `json:"market"`
}

// StrategyRequest asks for a strategy's surface or Greeks
type StrategyRequest struct {
	MarketInput
	Strategy scenario.Strategy `json:"strategy"`
}

// ForwardVolRequest bootstraps forward vols either from explicit series or from a ticker's chain
type ForwardVolRequest struct {
	Ticker string                 `json:"ticker"`
	Call   []models.ExpirationVol `json:"call,omitempty"`
	Put    []models.ExpirationVol `json:"put,omitempty"`
}

// ForwardPoint is a forward vol; ImpliedVol is null where the curve is inverted
type ForwardPoint struct {
	Day        int      `json:"day"`
	ImpliedVol *float64 `json:"impliedVol"`
}

// ForwardVolResponse is the answer to /forward-vol
type ForwardVolResponse struct {
	Ticker string         `json:"ticker,omitempty"`
	Call   []ForwardPoint `json:"call"`
	Put    []ForwardPoint `json:"put"`
	Issues map[string]int `json:"dataQualityIssues"`
}

// RateResponse is the answer to /rates
type RateResponse struct {
	Years float64 `json:"years"`
	Rate  float64 `json:"rate"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req OptionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	state, err := s.resolveMarket(r.Context(), req.MarketInput)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	start := time.Now()
	model, pricer, err := s.pricer(req, state)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	price, err := pricer.Price(req.Type)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.recorder.RecordPricing(model, req.Type.String(), time.Since(start))

	RespondJSON(w, http.StatusOK, PriceResponse{Model: model, Type: req.Type, Price: price, Market: state})
}

func (s *Server) handleGreeks(w http.ResponseWriter, r *http.Request) {
	var req OptionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	state, err := s.resolveMarket(r.Context(), req.MarketInput)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	start := time.Now()
	model, pricer, err := s.pricer(req, state)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	var greeks models.Greeks
	switch p := pricer.(type) {
	case *pricing.BlackScholes:
		greeks, err = p.Greeks(req.Type)
	case *pricing.Binomial:
		greeks, err = p.Greeks(req.Type, s.bumps)
	}
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.recorder.RecordPricing(model, req.Type.String(), time.Since(start))

	RespondJSON(w, http.StatusOK, GreeksResponse{Model: model, Greeks: greeks, Market: state})
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	var req StrategyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	state, err := s.resolveMarket(r.Context(), req.MarketInput)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	surface, err := s.builder.Surface(r.Context(), state, req.Strategy)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, surface)
}

func (s *Server) handleStrategyGreeks(w http.ResponseWriter, r *http.Request) {
	var req StrategyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	state, err := s.resolveMarket(r.Context(), req.MarketInput)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	greeks, err := scenario.StrategyGreeks(state, req.Strategy)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, GreeksResponse{
		Model:    pricing.ModelBlackScholes,
		Strategy: req.Strategy.Name,
		Greeks:   greeks,
		Market:   state,
	})
}

func (s *Server) handleForwardVol(w http.ResponseWriter, r *http.Request) {
	var req ForwardVolRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	var call, put volatility.ForwardCurve
	var err error
	switch {
	case len(req.Call) > 0 || len(req.Put) > 0:
		call, put, err = s.bootstrap.ForwardPair(req.Call, req.Put)
	case req.Ticker != "":
		call, put, err = s.market.ForwardVols(r.Context(), req.Ticker)
	default:
		err = apperrors.InvalidInputf("either a ticker or call and put series are required")
	}
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, ForwardVolResponse{
		Ticker: req.Ticker,
		Call:   forwardPoints(call),
		Put:    forwardPoints(put),
		Issues: map[string]int{
			"call": call.DataQualityIssues(),
			"put":  put.DataQualityIssues(),
		},
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("t")
	years, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.respondAppError(w, r, apperrors.InvalidInputf("query parameter t must be a number of years, got %q", raw))
		return
	}

	rate, err := s.market.Rate(r.Context(), years)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, RateResponse{Years: years, Rate: rate})
}

func (s *Server) resolveMarket(ctx context.Context, in MarketInput) (models.MarketState, error) {
	if in.Market != nil {
		state := *in.Market
		if state.Ticker == "" {
			state.Ticker = in.Ticker
		}
		if err := state.Validate(); err != nil {
			return models.MarketState{}, apperrors.Wrap(err, "market")
		}
		return state, nil
	}
	if in.Ticker == "" {
		return models.MarketState{}, apperrors.InvalidInputf("either market or ticker is required")
	}
	return s.market.Snapshot(ctx, in.Ticker, in.TimeToExpiry)
}

func (s *Server) pricer(req OptionRequest, state models.MarketState) (string, pricing.Pricer, error) {
	params := state.Params(req.Strike, req.ImpliedVol)

	switch req.Model {
	case "", pricing.ModelBlackScholes:
		bs, err := pricing.NewBlackScholes(params)
		return pricing.ModelBlackScholes, bs, err
	case pricing.ModelBinomial:
		lattice := s.builder.Config().Lattice
		if req.Style != nil {
			lattice.Style = *req.Style
		}
		if req.Steps > 0 {
			lattice.Steps = req.Steps
		}
		tree, err := pricing.NewBinomial(params, lattice)
		return pricing.ModelBinomial, tree, err
	default:
		return req.Model, nil, apperrors.InvalidInputf("model must be %q or %q, got %q", pricing.ModelBlackScholes, pricing.ModelBinomial, req.Model)
	}
}

func forwardPoints(curve volatility.ForwardCurve) []ForwardPoint {
	points := make([]ForwardPoint, 0, len(curve))
	for _, p := range curve.Points() {
		point := ForwardPoint{Day: p.Day}
		if !math.IsNaN(p.ImpliedVol) {
			v := p.ImpliedVol
			point.ImpliedVol = &v
		}
		points = append(points, point)
	}
	return points
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.WithType(apperrors.Wrap(err, "invalid request payload"), apperrors.ErrorTypeInvalidInput)
	}
	return nil
}
