package lp

import "fmt"

type Config struct {
	// Предельное число решений LP при бинарном поиске по T
	MaxProbes int
	// Количество сдвинутых геометрических окон b_i = T(1-2^-i)
	Windows int

	Compact bool
}

func DefaultConfig() Config {
	return Config{
		MaxProbes: 32,
		Windows:   4,
		Compact:   false,
	}
}

func (c Config) Validate() error {
	if c.MaxProbes <= 0 {
		return fmt.Errorf(
			"MaxProbes должно быть > 0 (получено %d)",
			c.MaxProbes,
		)
	}
	if c.Windows < 1 || c.Windows > 30 {
		return fmt.Errorf(
			"windows должно лежать в диапазоне [1, 30] (получено %d)",
			c.Windows,
		)
	}
	return nil
}
