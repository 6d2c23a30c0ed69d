package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-tickbench/internal/indicator"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// TimeRange is an inclusive time-of-day window in HHMMSS. A Start after End
// wraps past midnight.
type TimeRange struct {
	Start int `yaml:"start" json:"start" validate:"gte=0,lte=235959" jsonschema:"title=Start,description=Start time of day (HHMMSS)"`
	End   int `yaml:"end" json:"end" validate:"gte=0,lte=235959" jsonschema:"title=End,description=End time of day (HHMMSS)"`
}

// Contains reports whether the HHMMSS value falls inside the range.
func (r TimeRange) Contains(timeOfDay int) bool {
	if r.Start > r.End {
		return timeOfDay >= r.Start || timeOfDay <= r.End
	}

	return timeOfDay >= r.Start && timeOfDay <= r.End
}

// LimitConfig describes how limit orders are quoted and managed.
type LimitConfig struct {
	Reference             types.PriceReference `yaml:"reference" json:"reference,omitempty" jsonschema:"enum=current,enum=best_ask,enum=best_bid"`
	OffsetTicks           int                  `yaml:"offset_ticks" json:"offset_ticks,omitempty"`
	RepriceMax            int                  `yaml:"reprice_max" json:"reprice_max,omitempty" validate:"gte=0"`
	RepriceThresholdTicks int                  `yaml:"reprice_threshold_ticks" json:"reprice_threshold_ticks,omitempty" validate:"gte=0"`
	// CancelAfterSeconds drops an unfilled order; 0 keeps it until the day ends.
	CancelAfterSeconds int `yaml:"cancel_after_seconds" json:"cancel_after_seconds,omitempty" validate:"gte=0"`
}

// WeightTier applies Weight when the weighting value is at least Min.
type WeightTier struct {
	Min    float64 `yaml:"min" json:"min"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// WeightingConfig scales the entry allocation by a market condition.
type WeightingConfig struct {
	Key   WeightKey    `yaml:"key" json:"key,omitempty"`
	Tiers []WeightTier `yaml:"tiers" json:"tiers,omitempty"`
	// AngleLength is the window used for the angle keys; 0 uses the variant look-back.
	AngleLength int     `yaml:"angle_length" json:"angle_length,omitempty" validate:"gte=0"`
	AngleScale  float64 `yaml:"angle_scale" json:"angle_scale,omitempty"`
}

// EntryConfig controls when and how positions are opened.
type EntryConfig struct {
	OrderType             types.OrderType `yaml:"order_type" json:"order_type,omitempty" jsonschema:"enum=MARKET,enum=LIMIT"`
	Limit                 LimitConfig     `yaml:"limit" json:"limit,omitempty"`
	AttentionTopN         int             `yaml:"attention_top_n" json:"attention_top_n,omitempty" validate:"gte=0"`
	CancelOnAttentionExit bool            `yaml:"cancel_on_attention_exit" json:"cancel_on_attention_exit,omitempty"`
	MaxTradesPerDay       int             `yaml:"max_trades_per_day" json:"max_trades_per_day,omitempty" validate:"gte=0"`
	MaxStopLossesPerDay   int             `yaml:"max_stop_losses_per_day" json:"max_stop_losses_per_day,omitempty" validate:"gte=0"`
	Blackouts             []TimeRange     `yaml:"blackouts" json:"blackouts,omitempty" validate:"dive"`
	MinSecondsAfterExit   int             `yaml:"min_seconds_after_exit" json:"min_seconds_after_exit,omitempty" validate:"gte=0"`
	MinSecondsAfterStop   int             `yaml:"min_seconds_after_stop_loss" json:"min_seconds_after_stop_loss,omitempty" validate:"gte=0"`
	// RoundFigureTicks bans entries within this many ticks below the next multiple of RoundFigureUnit.
	RoundFigureTicks int             `yaml:"round_figure_ticks" json:"round_figure_ticks,omitempty" validate:"gte=0"`
	RoundFigureUnit  float64         `yaml:"round_figure_unit" json:"round_figure_unit,omitempty" validate:"gte=0"`
	Tranches         []float64       `yaml:"tranches" json:"tranches,omitempty"`
	Weighting        WeightingConfig `yaml:"weighting" json:"weighting,omitempty"`
}

// LadderConfig triggers tranche exits at growing profit and loss steps.
type LadderConfig struct {
	ProfitStepPct float64 `yaml:"profit_step_pct" json:"profit_step_pct,omitempty" validate:"gte=0"`
	LossStepPct   float64 `yaml:"loss_step_pct" json:"loss_step_pct,omitempty" validate:"gte=0"`
}

// ExitConfig controls how positions are reduced and closed.
type ExitConfig struct {
	OrderType      types.OrderType `yaml:"order_type" json:"order_type,omitempty" jsonschema:"enum=MARKET,enum=LIMIT"`
	Limit          LimitConfig     `yaml:"limit" json:"limit,omitempty"`
	StopLossPct    float64         `yaml:"stop_loss_pct" json:"stop_loss_pct,omitempty" validate:"gte=0"`
	StopLossAmount float64         `yaml:"stop_loss_amount" json:"stop_loss_amount,omitempty" validate:"gte=0"`
	Ladder         LadderConfig    `yaml:"ladder" json:"ladder,omitempty"`
	Tranches       []float64       `yaml:"tranches" json:"tranches,omitempty"`
	// DayEndLiquidation closes every position on the last record of each day.
	DayEndLiquidation bool `yaml:"day_end_liquidation" json:"day_end_liquidation"`
}

type BacktestEngineV1Config struct {
	Venue            commission_fee.Venue `yaml:"venue" json:"venue" validate:"required,oneof=equity spot futures flat" jsonschema:"title=Venue,description=Fee and tick rules to apply"`
	Rates            commission_fee.Rates `yaml:"rates" json:"rates,omitempty" jsonschema:"title=Rates,description=Overrides for the venue fee rates"`
	Allocation       float64              `yaml:"allocation" json:"allocation" validate:"gt=0" jsonschema:"title=Allocation,description=Capital committed to one full position,minimum=0"`
	DecimalPrecision int                  `yaml:"decimal_precision" json:"decimal_precision" validate:"gte=0,lte=12" jsonschema:"title=Decimal Precision,description=Quantity decimals for spot and futures venues"`
	TickSize         float64              `yaml:"tick_size" json:"tick_size,omitempty" validate:"gte=0" jsonschema:"title=Tick Size,description=Fixed price increment; 0 uses the venue table"`
	MinuteBars       bool                 `yaml:"minute_bars" json:"minute_bars,omitempty" jsonschema:"title=Minute Bars,description=Records are OHLC bars rather than ticks"`
	AllowShort       bool                 `yaml:"allow_short" json:"allow_short,omitempty" jsonschema:"title=Allow Short,description=Enable short entries"`
	SymbolTags       map[string]string    `yaml:"symbol_tags" json:"symbol_tags,omitempty" jsonschema:"title=Symbol Tags,description=Tag copied into each trade record"`

	// StartTime and EndTime are decoded by UnmarshalYAML.
	StartTime optional.Option[time.Time] `yaml:"-" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime   optional.Option[time.Time] `yaml:"-" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Session   TimeRange                  `yaml:"session" json:"session,omitempty" jsonschema:"title=Session,description=Time-of-day range loaded from the data source"`

	Workers        int               `yaml:"workers" json:"workers,omitempty" validate:"gte=0" jsonschema:"title=Workers,description=Worker goroutines; 0 uses the CPU count"`
	Aggregators    int               `yaml:"aggregators" json:"aggregators,omitempty" validate:"gte=0" jsonschema:"title=Aggregators,description=Sub-aggregator goroutines"`
	Partition      PartitionStrategy `yaml:"partition" json:"partition,omitempty" jsonschema:"enum=symbol,enum=day,enum=symbol_day"`
	HeldResolution int               `yaml:"held_resolution" json:"held_resolution,omitempty" validate:"gte=0" jsonschema:"title=Held Resolution,description=Seconds per held-position bucket"`

	ResetEachDay      bool               `yaml:"reset_each_day" json:"reset_each_day,omitempty" jsonschema:"title=Reset Each Day,description=Look-backs never cross a day boundary"`
	PrecomputeColumns []types.Column     `yaml:"precompute_columns" json:"precompute_columns,omitempty"`
	Variants          VariantConfig      `yaml:"variants" json:"variants"`
	Indicators        indicator.Settings `yaml:"indicators" json:"indicators,omitempty"`
	Entry             EntryConfig        `yaml:"entry" json:"entry,omitempty"`
	Exit              ExitConfig         `yaml:"exit" json:"exit,omitempty"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(any) error) error {
	type plain BacktestEngineV1Config

	type Config struct {
		plain     `yaml:",inline"`
		StartTime *time.Time `yaml:"start_time"`
		EndTime   *time.Time `yaml:"end_time"`
	}

	config := Config{plain: plain(EmptyConfig())}
	if err := unmarshal(&config); err != nil {
		return err
	}

	*c = BacktestEngineV1Config(config.plain)
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Venue") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllVenues,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Venue:             commission_fee.VenueEquity,
		Rates:             commission_fee.Rates{},
		Allocation:        0,
		DecimalPrecision:  0,
		TickSize:          0,
		MinuteBars:        false,
		AllowShort:        false,
		SymbolTags:        nil,
		StartTime:         optional.None[time.Time](),
		EndTime:           optional.None[time.Time](),
		Session:           TimeRange{Start: 0, End: 235959},
		Workers:           0,
		Aggregators:       1,
		Partition:         PartitionBySymbol,
		HeldResolution:    60,
		ResetEachDay:      true,
		PrecomputeColumns: []types.Column{types.ColumnPrice},
		Variants:          VariantConfig{Mode: VariantModeSingle},
		Indicators:        indicator.Settings{},
		Entry: EntryConfig{
			OrderType: types.OrderTypeMarket,
			Limit:     LimitConfig{Reference: types.PriceReferenceCurrent},
		},
		Exit: ExitConfig{
			OrderType:         types.OrderTypeMarket,
			Limit:             LimitConfig{Reference: types.PriceReferenceCurrent},
			DayEndLiquidation: true,
		},
	}
}

// TestConfig returns a small equity configuration used by tests and examples.
func TestConfig(allocation float64, venue commission_fee.Venue) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Venue = venue
	config.Allocation = allocation
	config.Workers = 1

	return config
}
