package ilp

import "fmt"

// DefaultRho - порог «тяжёлой» доли при округлении.
const DefaultRho = 0.430991

type Config struct {
	Rho float64
	// Дополнительные временные слоты сверх послойной оценки
	ExtraSlices int

	Compact bool
}

func DefaultConfig() Config {
	return Config{
		Rho:         DefaultRho,
		ExtraSlices: 0,
		Compact:     false,
	}
}

func (c Config) Validate() error {
	if c.Rho <= 0 || c.Rho > 1 {
		return fmt.Errorf(
			"rho должно лежать в интервале (0,1] (получено %f)",
			c.Rho,
		)
	}
	if c.ExtraSlices < 0 {
		return fmt.Errorf(
			"ExtraSlices должно быть >= 0 (получено %d)",
			c.ExtraSlices,
		)
	}
	return nil
}
