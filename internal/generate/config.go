package generate

import "fmt"

type Config struct {
	Jobs     int
	Machines int

	// Диапазон времени выполнения на одном процессоре
	MinTime int
	MaxTime int

	// Omega цепочек длиной от MinChain до MaxChain
	Omega    int
	MinChain int
	MaxChain int

	// Concave: p(k) = p(1)/min(k, cutoff); иначе произвольная невозрастающая функция
	Concave bool
}

func DefaultConfig() Config {
	return Config{
		Jobs:     20,
		Machines: 4,
		MinTime:  1,
		MaxTime:  99,
		Omega:    4,
		MinChain: 1,
		MaxChain: 10,
		Concave:  true,
	}
}

func (c Config) Validate() error {
	if c.Jobs <= 0 {
		return fmt.Errorf("количество работ должно быть > 0 (получено %d)", c.Jobs)
	}
	if c.Machines <= 0 {
		return fmt.Errorf("количество процессоров должно быть > 0 (получено %d)", c.Machines)
	}
	if c.MinTime < 1 {
		return fmt.Errorf("MinTime должно быть >= 1 (получено %d)", c.MinTime)
	}
	if c.MaxTime < c.MinTime {
		return fmt.Errorf("MaxTime должно быть >= MinTime (получено %d < %d)", c.MaxTime, c.MinTime)
	}
	if c.Omega < 1 || c.Omega > c.Jobs {
		return fmt.Errorf("omega должно лежать в диапазоне [1, jobs] (получено %d)", c.Omega)
	}
	if c.MinChain < 1 {
		return fmt.Errorf("MinChain должно быть >= 1 (получено %d)", c.MinChain)
	}
	if c.MaxChain < c.MinChain {
		return fmt.Errorf("MaxChain должно быть >= MinChain (получено %d < %d)", c.MaxChain, c.MinChain)
	}
	if c.MinChain*c.Omega > c.Jobs {
		return fmt.Errorf("MinChain*omega должно быть <= jobs (получено %d > %d)", c.MinChain*c.Omega, c.Jobs)
	}
	if c.MaxChain*c.Omega < c.Jobs {
		return fmt.Errorf("MaxChain*omega должно быть >= jobs (получено %d < %d)", c.MaxChain*c.Omega, c.Jobs)
	}
	return nil
}
