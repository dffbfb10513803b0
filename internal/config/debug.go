package config

import "os"

func IsDebug() bool {
	return os.Getenv("TUSKQA_DEBUG") == "1"
}
