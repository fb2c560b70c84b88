package cmd

import "github.com/spf13/pflag"

// mustBind binds a flag to a config key. Unset flags do not override
// config file or environment values.
func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
