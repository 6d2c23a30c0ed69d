package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// DataGenerator generates synthetic ticks with a five-level book for tests
// and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
	}
}

// GeneratorConfig configures how ticks are generated.
type GeneratorConfig struct {
	Symbol string
	// SessionStart is the first tick of the first day. Later days start at
	// the same time of day.
	SessionStart time.Time
	Interval     time.Duration
	Days         int
	TicksPerDay  int
	InitialPrice float64
	// TickSize is the spacing of the generated book levels and prices.
	TickSize float64
	// Volatility is the standard deviation of the per-tick return.
	Volatility float64
	// DepthBase is the average quantity of a book level.
	DepthBase float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		SessionStart: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		Interval:     time.Second,
		Days:         1,
		TicksPerDay:  1000,
		InitialPrice: 10000,
		TickSize:     10,
		Volatility:   0.001,
		DepthBase:    500,
	}
}

// Generate creates the ticks of one symbol in time order. Prices follow a
// geometric random walk snapped to the tick size.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Tick {
	ticks := make([]types.Tick, 0, config.Days*config.TicksPerDay)
	price := config.InitialPrice
	prevClose := config.InitialPrice

	for day := range config.Days {
		dayStart := config.SessionStart.AddDate(0, 0, day)
		open := price
		high := price
		low := price
		tradeValue := 0.0

		for i := range config.TicksPerDay {
			z := g.normal()

			next := price * (1 + config.Volatility*z)
			if next <= config.TickSize {
				next = price
			}

			price = snap(next, config.TickSize)
			high = math.Max(high, price)
			low = math.Min(low, price)

			volume := math.Round(config.DepthBase * (0.2 + g.rng.Float64()))
			tradeValue += volume * price

			tick := types.Tick{
				Symbol:        config.Symbol,
				Time:          dayStart.Add(time.Duration(i) * config.Interval),
				Price:         price,
				Open:          open,
				High:          high,
				Low:           low,
				ChangeRate:    roundToDecimals((price-prevClose)/prevClose*100, 2),
				TradeValue:    tradeValue,
				TickStrength:  roundToDecimals(80+g.rng.Float64()*40, 2),
				Turnover:      roundToDecimals(g.rng.Float64()*5, 2),
				PrevDayRatio:  roundToDecimals(50+g.rng.Float64()*100, 2),
				SameTimeRatio: roundToDecimals(50+g.rng.Float64()*100, 2),
				Volume:        volume,
				AttentionRank: 1 + g.rng.Intn(30),
				Asks:          [types.DepthLevels]types.DepthLevel{},
				Bids:          [types.DepthLevels]types.DepthLevel{},
				TotalAskQty:   0,
				TotalBidQty:   0,
			}

			for level := range types.DepthLevels {
				offset := float64(level+1) * config.TickSize
				tick.Asks[level] = types.DepthLevel{Price: snap(price+offset, config.TickSize), Quantity: g.depth(config)}
				tick.Bids[level] = types.DepthLevel{Price: snap(price-offset, config.TickSize), Quantity: g.depth(config)}
				tick.TotalAskQty += tick.Asks[level].Quantity
				tick.TotalBidQty += tick.Bids[level].Quantity
			}

			ticks = append(ticks, tick)
		}

		prevClose = price
	}

	return ticks
}

// GenerateMultiSymbol generates ticks for every symbol with slightly
// different starting prices.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.Tick {
	var all []types.Tick

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = snap(baseConfig.InitialPrice*(0.8+g.rng.Float64()*0.4), baseConfig.TickSize)

		all = append(all, g.Generate(config)...)
	}

	return all
}

// Generate10K generates 10,000 ticks of one symbol with the default settings.
func Generate10K(symbol string) []types.Tick {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Symbol = symbol
	config.TicksPerDay = 10000

	return gen.Generate(config)
}

// normal draws from the standard normal distribution (Box-Muller).
func (g *DataGenerator) normal() float64 {
	u1 := g.rng.Float64()
	for u1 == 0 {
		u1 = g.rng.Float64()
	}

	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func (g *DataGenerator) depth(config GeneratorConfig) float64 {
	return math.Round(config.DepthBase * (0.5 + g.rng.Float64()))
}

func snap(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}

	return roundToDecimals(math.Round(price/tick)*tick, 8)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
