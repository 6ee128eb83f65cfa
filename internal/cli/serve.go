package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-master-client/internal/config"
	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/infra/memory"
	pgloader "quiz-master-client/internal/infra/postgres"
	redisinfra "quiz-master-client/internal/infra/redis"
	"quiz-master-client/internal/server"
	transport "quiz-master-client/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the game server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Game.BankTTL, 10*time.Minute)
	var questions server.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, bankTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, bankTTL)
	}

	var rooms server.RoomRepository
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	gameCfg := server.DefaultConfig()
	if cfg.Game.TimePerQuestion > 0 {
		gameCfg.TimePerQuestion = cfg.Game.TimePerQuestion
	}
	if cfg.Game.CountdownSeconds > 0 {
		gameCfg.CountdownSeconds = cfg.Game.CountdownSeconds
	}
	if cfg.Game.PointsPerCorrect > 0 {
		gameCfg.PointsPerCorrect = cfg.Game.PointsPerCorrect
	}

	service := server.NewRoomService(rooms, questions, gameCfg)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	httpServer := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz game server on :%s", finalPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sampleBanks seeds a playable question set when no database is configured.
func sampleBanks() map[string]domain.QuestionBank {
	settings := domain.QuizSettings{Category: "primary", Subject: "mathematics", Difficulty: "medium"}
	return map[string]domain.QuestionBank{
		domain.BankID(settings): {
			ID: domain.BankID(settings),
			Questions: []domain.Question{
				{Text: "What is 12 x 12?", Options: []string{"124", "144", "142", "164"}, CorrectOptionIndex: 1, Explanation: "12 multiplied by 12 is 144."},
				{Text: "What is 100 divided by 4?", Options: []string{"20", "25", "40", "50"}, CorrectOptionIndex: 1, Explanation: "100 / 4 = 25."},
				{Text: "What is the next prime after 7?", Options: []string{"9", "10", "11", "13"}, CorrectOptionIndex: 2, Explanation: "11 is the next prime number after 7."},
				{Text: "How many degrees in a right angle?", Options: []string{"45", "60", "90", "180"}, CorrectOptionIndex: 2, Explanation: "A right angle measures 90 degrees."},
				{Text: "What is 3 squared?", Options: []string{"6", "9", "12", "27"}, CorrectOptionIndex: 1, Explanation: "3 x 3 = 9."},
			},
		},
	}
}
