// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("modelpath", "model/voice_model.gob")
	viper.SetDefault("datadir", "data")

	viper.SetDefault("audio.samplerate", 16000)
	viper.SetDefault("audio.maxclipseconds", 60.0)
	viper.SetDefault("audio.minclipseconds", 0.5)
	viper.SetDefault("audio.maxdownloadmb", 50)
	viper.SetDefault("audio.downloadtimeout", 30)
	viper.SetDefault("audio.ffmpegpath", "ffmpeg")
	viper.SetDefault("audio.scratchdir", "")

	viper.SetDefault("features.nfft", 2048)
	viper.SetDefault("features.hop", 512)
	viper.SetDefault("features.nmfcc", 13)
	viper.SetDefault("features.nmels", 128)
	viper.SetDefault("features.nchroma", 12)

	viper.SetDefault("forest.trees", 120)
	viper.SetDefault("forest.maxdepth", 12)
	viper.SetDefault("forest.minsamplessplit", 4)
	viper.SetDefault("forest.minsamplesleaf", 2)
	viper.SetDefault("forest.seed", 42)

	// Safety bias against false fraud accusations. Not calibrated against a
	// validation set, flagged for calibration review.
	viper.SetDefault("policy.overridethreshold", 0.85)
	viper.SetDefault("policy.highconfidence", 0.85)
	viper.SetDefault("policy.lowconfidence", 0.65)

	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", "8000")
	viper.SetDefault("http.apikey", "")

	viper.SetDefault("log.enabled", true)
	viper.SetDefault("log.path", "logs/voicedetect.log")
	viper.SetDefault("log.maxsize", 10)
	viper.SetDefault("log.maxage", 28)
	viper.SetDefault("log.backups", 3)
	viper.SetDefault("log.compress", true)
}
