package sa

import "fmt"

// Тип окрестности распределения процессоров
type Neighborhood string

const (
	// Изменить число процессоров одной работы на ±1
	NeighborhoodStep Neighborhood = "step"
	// Выбрать число процессоров одной работы заново из 1..m
	NeighborhoodResample Neighborhood = "resample"
)

type Config struct {
	Iterations       int
	IterationsPerJob int

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood Neighborhood

	// Compact уплотняет лучшее найденное расписание
	Compact bool
}

func DefaultConfig() Config {
	return Config{
		Iterations:       0,
		IterationsPerJob: 200,

		InitialTemp: 50.0,
		FinalTemp:   0.05,
		Alpha:       0.995,

		Neighborhood: NeighborhoodStep,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerJob > 0",
		)
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	if c.FinalTemp <= 0 || c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf(
			"FinalTemp должно лежать в интервале (0, InitialTemp) (получено %f)",
			c.FinalTemp,
		)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	switch c.Neighborhood {
	case NeighborhoodStep, NeighborhoodResample:
		// ok
	default:
		return fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		)
	}
	return nil
}
