package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/config"
	"pricewatch-telegram-bot/internal/alert"
	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/market"
	"pricewatch-telegram-bot/internal/metrics"
	"pricewatch-telegram-bot/internal/reconcile"
	"pricewatch-telegram-bot/internal/telegram"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	token := config.GetString("telegram_bot_token")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	if err := database.InitDB(config.GetString("database_path")); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	store := alert.NewStore(alert.DuplicatePolicy(config.GetString("duplicate_policy")))

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:           token,
		Debug:           config.GetBool("debug"),
		UpdatesTimeout:  60,
		DefaultScreener: "forex",
		DefaultExchange: "OANDA",
	}, store)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Rebuild lost alerts before the first poll cycle can run.
	reconcile.New(store, reconcile.Archive{}, bot.SelfID(), config.GetInt("history_window")).Run()

	checker := alert.NewChecker(
		store,
		market.NewClient(config.GetString("candle_interval")),
		bot.Dispatcher(),
		config.GetInt("candle_history_size"),
	)
	if err := checker.Start(time.Duration(config.GetInt("poll_interval_seconds")) * time.Second); err != nil {
		log.Fatalf("Failed to start alert checker: %v", err)
	}

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}
	go handleUpdates(bot, updates)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		checker.Stop()
		database.CloseDB()
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting price watch bot...")
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.CallbackQuery != nil {
			bot.HandleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-command update")
			continue
		}

		handleCommand(bot, update)
	}
}

func handleCommand(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(update)
	metrics.CommandsProcessed.Inc()
	if text == "" {
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}
