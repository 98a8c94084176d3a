package dp

import "fmt"

// Правило выбора искусственного последовательного разреза для неразложимых порядков
type CutPolicy string

const (
	// Разрез с минимальным числом добавленных пар предшествования
	CutFewestPairs CutPolicy = "fewest-pairs"
	// Разрез, ближайший к середине топологического порядка
	CutBalanced CutPolicy = "balanced"
)

type Config struct {
	// StrictWidth: ошибка, если фактическая ширина порядка больше объявленной
	StrictWidth bool

	Cut CutPolicy
}

func DefaultConfig() Config {
	return Config{
		StrictWidth: false,
		Cut:         CutFewestPairs,
	}
}

func (c Config) Validate() error {
	switch c.Cut {
	case CutFewestPairs, CutBalanced:
		// ok
	default:
		return fmt.Errorf(
			"неизвестное правило разреза %q",
			c.Cut,
		)
	}
	return nil
}
