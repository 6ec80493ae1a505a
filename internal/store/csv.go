package store

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rzzdr/option-scenario-engine/pkg/models"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// optionalFloat reads an empty cell as NaN
type optionalFloat float64

func (f *optionalFloat) UnmarshalCSV(field string) error {
	field = strings.TrimSpace(field)
	if field == "" || strings.EqualFold(field, "nan") {
		*f = optionalFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return err
	}
	*f = optionalFloat(v)
	return nil
}

func (f optionalFloat) MarshalCSV() (string, error) {
	if math.IsNaN(float64(f)) {
		return "", nil
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64), nil
}

// chainRow is one line of a chain file, which holds the chains of several tickers
type chainRow struct {
	Ticker        string            `csv:"ticker"`
	ExpirationDay int               `csv:"expiration_day"`
	Type          models.OptionType `csv:"type"`
	Strike        float64           `csv:"strike"`
	Volume        float64           `csv:"volume"`
	ImpliedVol    optionalFloat     `csv:"implied_vol"`
}

// LoadQuotes reads underlying quotes with columns ticker,last_price,dividend_yield
func LoadQuotes(r io.Reader) ([]models.UnderlyingQuote, error) {
	var quotes []models.UnderlyingQuote
	if err := gocsv.Unmarshal(r, &quotes); err != nil {
		return nil, apperrors.WithType(apperrors.Wrap(err, "failed to parse quotes"), apperrors.ErrorTypeInvalidInput)
	}
	for i, q := range quotes {
		if q.Ticker == "" || q.LastPrice <= 0 {
			return nil, apperrors.InvalidInputf("quote row %d: ticker and a positive last price are required", i+1)
		}
	}
	return quotes, nil
}

// LoadChain reads option chains with columns ticker,expiration_day,type,strike,volume,implied_vol.
// An empty implied_vol cell is kept as NaN.
func LoadChain(r io.Reader) (map[string][]models.OptionQuote, error) {
	var rows []chainRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, apperrors.WithType(apperrors.Wrap(err, "failed to parse option chain"), apperrors.ErrorTypeInvalidInput)
	}

	chains := make(map[string][]models.OptionQuote)
	for i, row := range rows {
		if row.Ticker == "" || row.Strike <= 0 || row.ExpirationDay < 0 {
			return nil, apperrors.InvalidInputf("chain row %d: ticker, a positive strike and a non-negative expiration day are required", i+1)
		}
		t := key(row.Ticker)
		chains[t] = append(chains[t], models.OptionQuote{
			ExpirationDay: row.ExpirationDay,
			Type:          row.Type,
			Strike:        row.Strike,
			Volume:        row.Volume,
			ImpliedVol:    float64(row.ImpliedVol),
		})
	}
	return chains, nil
}

// LoadRateCurve reads a rate curve with columns tenor_days,rate
func LoadRateCurve(r io.Reader) ([]models.RateCurvePoint, error) {
	var points []models.RateCurvePoint
	if err := gocsv.Unmarshal(r, &points); err != nil {
		return nil, apperrors.WithType(apperrors.Wrap(err, "failed to parse rate curve"), apperrors.ErrorTypeInvalidInput)
	}
	if len(points) == 0 {
		return nil, apperrors.InvalidInputf("rate curve file has no rows")
	}
	return points, nil
}

// WriteChain writes one ticker's chain in the format LoadChain reads
func WriteChain(w io.Writer, ticker string, chain []models.OptionQuote) error {
	rows := make([]chainRow, len(chain))
	for i, q := range chain {
		rows[i] = chainRow{
			Ticker:        key(ticker),
			ExpirationDay: q.ExpirationDay,
			Type:          q.Type,
			Strike:        q.Strike,
			Volume:        q.Volume,
			ImpliedVol:    optionalFloat(q.ImpliedVol),
		}
	}
	return gocsv.Marshal(&rows, w)
}

// LoadFiles fills the store from CSV files. Empty paths are skipped.
func (s *InMemoryMarketDataStore) LoadFiles(quotesPath, chainPath, curvePath string) error {
	if quotesPath != "" {
		quotes, err := loadFile(quotesPath, LoadQuotes)
		if err != nil {
			return err
		}
		for _, q := range quotes {
			s.PutQuote(q)
		}
	}

	if chainPath != "" {
		chains, err := loadFile(chainPath, LoadChain)
		if err != nil {
			return err
		}
		for ticker, chain := range chains {
			s.PutChain(ticker, chain)
		}
	}

	if curvePath != "" {
		points, err := loadFile(curvePath, LoadRateCurve)
		if err != nil {
			return err
		}
		s.SetRateCurve(points)
	}

	s.log.Infow("Loaded market data", "quotes", quotesPath, "chain", chainPath, "curve", curvePath, "tickers", len(s.Tickers()))
	return nil
}

func loadFile[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, apperrors.Unavailable(err, "failed to open "+path)
	}
	defer f.Close()

	out, err := load(f)
	if err != nil {
		return zero, apperrors.Wrapf(err, "%s", path)
	}
	return out, nil
}
