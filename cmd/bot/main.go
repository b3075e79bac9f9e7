package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/benjamonnguyen/breathe-go"
	"github.com/benjamonnguyen/breathe-go/discordgo"
	"github.com/benjamonnguyen/breathe-go/sqlite"
	dg "github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
)

const (
	RepoURL = "https://github.com/benjamonnguyen/breathe-go"
	Version = "0.1.0"
)

func main() {
	var isProd bool
	flag.BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")
	flag.Parse()

	// config
	cfg, err := breathe.LoadConfig(isProd)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	log.SetLevel(cfg.LogLevel)
	log.SetReportCaller(true)
	topCtx, topCtxC := context.WithCancel(context.Background())

	// db
	log.Info("opening db", "url", cfg.DatabaseURL)
	db, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed database open", "err", err)
	}
	defer db.Close() //nolint

	tx, dbGetter := txStdLib.NewTransactor(
		db,
		txStdLib.NestedTransactionsSavepoints,
	)
	preferencesRepo := sqlite.NewPreferencesRepo(dbGetter, log.Default())

	// audio
	track, err := loadPCMTrack(cfg.TrackPath)
	if err != nil {
		log.Fatal("failed track load", "err", err)
	}

	// set up discord cl
	cl, err := dg.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}
	cl.ShouldRetryOnRateLimit = false
	cl.Client = &http.Client{Timeout: (20 * time.Second)}
	cl.UserAgent = fmt.Sprintf("%s (%s, v%s)", cfg.BotName, RepoURL, Version)
	cl.ShouldReconnectVoiceOnSessionError = true
	cl.Identify.Intents = dg.IntentsGuilds | dg.IntentsGuildVoiceStates

	dm := NewDiscordMessenger(cl)
	host := discordgo.NewHost(cl, cfg.BotName, cfg.Theme, log.Default())

	// session manager
	sessionManager := NewSessionManager(sessionManagerConfig{
		repo:  preferencesRepo,
		tx:    tx,
		clock: realClock{},
		newPlayer: func(guildID string, vcID breathe.VoiceChannelID) AudioPlayer {
			if len(track) == 0 || vcID == "" {
				return noopPlayer{}
			}
			sink := discordgo.NewVoiceSink(cl, guildID, string(vcID), log.Default())
			return newAsyncPlayer(newTrackPlayer(track, sink, log.Default()), log.Default())
		},
		newBridge: func(cID breathe.TextChannelID) viewBridge {
			return host.Bridge(cID)
		},
		releaseBridge: host.Release,
		editView: func(cID breathe.TextChannelID, messageID string, components []dg.MessageComponent) error {
			_, err := dm.EditChannelMessage(cID, messageID, components...)
			return err
		},
		renderInterval:    cfg.RenderInterval,
		excludePausedTime: cfg.ExcludePausedTime,
		l:                 log.Default(),
	})

	// discord event hooks
	voiceChannel := func(guildID, userID string) breathe.VoiceChannelID {
		vs, err := cl.State.VoiceState(guildID, userID)
		if err != nil {
			return ""
		}
		return breathe.VoiceChannelID(vs.ChannelID)
	}
	cl.AddHandler(func(s *dg.Session, m *dg.InteractionCreate) {
		_ = OpenSession(topCtx, sessionManager, dm, voiceChannel, m) ||
			SetVolume(sessionManager, dm, m) ||
			SetTheme(host, dm, m) ||
			HandleSessionAction(topCtx, sessionManager, dm, m)
	})

	// open connection
	if err := cl.Open(); err != nil {
		log.Fatal("Error opening connection", "err", err)
	}
	log.Info(cfg.BotName + " running. Press CTRL-C to exit.")

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	log.Info("terminating " + cfg.BotName)
	topCtxC()
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), time.Minute)
	go func() {
		// views are finalized before the gateway goes away
		sessionManager.Shutdown()
		if err := cl.Close(); err != nil {
			log.Error(err)
		}
		shutdownTimeoutC()
	}()
	<-shutdownTimeout.Done()
	if shutdownTimeout.Err() != context.Canceled {
		log.Error("failed to shut down gracefully", "err", shutdownTimeout.Err())
	}
}
