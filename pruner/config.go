package pruner

import (
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/danthegoodman1/floedb/utils"
)

type prunerConfig struct {
	// MaxRanges caps the number of partition key ranges built per range
	// segment. 0 means unlimited. Highly hash-partitioned tables with a
	// constrained trailing dimension can blow up combinatorially; past the
	// cap the pruner stops pruning that segment instead.
	MaxRanges int64 `validate:"gte=0"`
}

var prunerMaxRanges = loadMaxRanges()

func loadMaxRanges() int64 {
	cfg := prunerConfig{
		MaxRanges: utils.GetEnvOrDefaultInt("PRUNER_MAX_RANGES", 0),
	}
	if err := validator.New().Struct(cfg); err != nil {
		logger.Error().Err(err).Msg("invalid PRUNER_MAX_RANGES")
		os.Exit(1)
	}
	return cfg.MaxRanges
}
