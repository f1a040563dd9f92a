package main

import (
	"os"
	"strconv"
)

// envStringDefault returns the OPTIMIZATION_* override for key if set,
// otherwise def. Flag defaults are constructed once at startup by calling
// this before Flags().*Var registration, so a flag left unset on the
// command line still picks up the environment override.
func envStringDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloatDefault(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
