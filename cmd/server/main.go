package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/roomtracks/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	linkMirrorTTL = configVar[time.Duration]{
		envKey:       "SERVER_LINK_MIRROR_TTL",
		flagKey:      "link-mirror-ttl",
		defaultValue: 24 * time.Hour,
	}
	relayPollInterval = configVar[time.Duration]{
		envKey:       "SERVER_RELAY_POLL_INTERVAL",
		flagKey:      "relay-poll-interval",
		defaultValue: 1500 * time.Millisecond,
	}
	locale = configVar[string]{
		envKey:       "SERVER_LOCALE",
		flagKey:      "locale",
		defaultValue: "ko",
	}
	metadataLookup = configVar[bool]{
		envKey:       "SERVER_METADATA_LOOKUP",
		flagKey:      "metadata-lookup",
		defaultValue: true,
	}
	exportBackend = configVar[string]{
		envKey:       "EXPORT_BACKEND",
		flagKey:      "export-backend",
		defaultValue: "",
	}
	exportPacing = configVar[time.Duration]{
		envKey:       "EXPORT_PACING",
		flagKey:      "export-pacing",
		defaultValue: 150 * time.Millisecond,
	}
	proxyURL = configVar[string]{
		envKey:       "EXPORT_PROXY_URL",
		flagKey:      "export-proxy-url",
		defaultValue: "",
	}
	oauthClientID = configVar[string]{
		envKey:       "YOUTUBE_CLIENT_ID",
		flagKey:      "youtube-client-id",
		defaultValue: "",
	}
	oauthClientSecret = configVar[string]{
		envKey:       "YOUTUBE_CLIENT_SECRET",
		flagKey:      "youtube-client-secret",
		defaultValue: "",
	}
	oauthRefreshToken = configVar[string]{
		envKey:       "YOUTUBE_REFRESH_TOKEN",
		flagKey:      "youtube-refresh-token",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(linkMirrorTTL.flagKey, linkMirrorTTL.defaultValue, "How long a relayed link survives in redis, 0 keeps it forever")
	pflag.Duration(relayPollInterval.flagKey, relayPollInterval.defaultValue, "Interval of forced link polls")
	pflag.String(locale.flagKey, locale.defaultValue, "Locale used to order rooms by name")
	pflag.Bool(metadataLookup.flagKey, metadataLookup.defaultValue, "Look up title and channel of manually added videos")
	pflag.String(exportBackend.flagKey, exportBackend.defaultValue, "Playlist export backend: youtube, proxy or empty to disable")
	pflag.Duration(exportPacing.flagKey, exportPacing.defaultValue, "Minimum delay between playlist backend calls")
	pflag.String(proxyURL.flagKey, proxyURL.defaultValue, "Base url of the playlist proxy")
	pflag.String(oauthClientID.flagKey, oauthClientID.defaultValue, "YouTube OAuth client id")
	pflag.String(oauthClientSecret.flagKey, oauthClientSecret.defaultValue, "YouTube OAuth client secret")
	pflag.String(oauthRefreshToken.flagKey, oauthRefreshToken.defaultValue, "YouTube OAuth refresh token")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(linkMirrorTTL.flagKey, linkMirrorTTL.envKey)
	viper.BindEnv(relayPollInterval.flagKey, relayPollInterval.envKey)
	viper.BindEnv(locale.flagKey, locale.envKey)
	viper.BindEnv(metadataLookup.flagKey, metadataLookup.envKey)
	viper.BindEnv(exportBackend.flagKey, exportBackend.envKey)
	viper.BindEnv(exportPacing.flagKey, exportPacing.envKey)
	viper.BindEnv(proxyURL.flagKey, proxyURL.envKey)
	viper.BindEnv(oauthClientID.flagKey, oauthClientID.envKey)
	viper.BindEnv(oauthClientSecret.flagKey, oauthClientSecret.envKey)
	viper.BindEnv(oauthRefreshToken.flagKey, oauthRefreshToken.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(linkMirrorTTL.flagKey, linkMirrorTTL.defaultValue)
	viper.SetDefault(relayPollInterval.flagKey, relayPollInterval.defaultValue)
	viper.SetDefault(locale.flagKey, locale.defaultValue)
	viper.SetDefault(metadataLookup.flagKey, metadataLookup.defaultValue)
	viper.SetDefault(exportBackend.flagKey, exportBackend.defaultValue)
	viper.SetDefault(exportPacing.flagKey, exportPacing.defaultValue)
	viper.SetDefault(proxyURL.flagKey, proxyURL.defaultValue)
	viper.SetDefault(oauthClientID.flagKey, oauthClientID.defaultValue)
	viper.SetDefault(oauthClientSecret.flagKey, oauthClientSecret.defaultValue)
	viper.SetDefault(oauthRefreshToken.flagKey, oauthRefreshToken.defaultValue)

	config := &app.AppConfig{
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		LinkMirrorTTL:     viper.GetDuration(linkMirrorTTL.flagKey),
		RelayPollInterval: viper.GetDuration(relayPollInterval.flagKey),
		Locale:            viper.GetString(locale.flagKey),
		MetadataLookup:    viper.GetBool(metadataLookup.flagKey),
		ExportBackend:     viper.GetString(exportBackend.flagKey),
		ExportPacing:      viper.GetDuration(exportPacing.flagKey),
		ProxyURL:          viper.GetString(proxyURL.flagKey),
		OAuthClientID:     viper.GetString(oauthClientID.flagKey),
		OAuthClientSecret: viper.GetString(oauthClientSecret.flagKey),
		OAuthRefreshToken: viper.GetString(oauthRefreshToken.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
