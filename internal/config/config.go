package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// ReadConfiguration parses the given configuration file, or, if the name is
// empty, searches for "offloadml-conf.yaml" in the predefined paths.
// Every key can be overridden through the environment (e.g., OFFLOADML_API_PORT).
func ReadConfiguration(fileName string) {
	viper.SetConfigType("yaml")

	if len(fileName) > 0 {
		viper.SetConfigFile(fileName)
	} else {
		viper.SetConfigName("offloadml-conf")
		viper.AddConfigPath("/etc/offloadml/")
		viper.AddConfigPath("$HOME/")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("offloadml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No configuration file parsed.")
		} else {
			log.Printf("Configuration parsing failed: %v\n", err)
		}
	}

	for _, key := range viper.AllKeys() {
		log.Printf("Configuration: %s: %v\n", key, viper.Get(key))
	}
}

func GetInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultValue
}

func GetFloat(key string, defaultValue float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultValue
}

func GetString(key string, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func GetBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultValue
}
