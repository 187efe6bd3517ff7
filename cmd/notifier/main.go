package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"ict-access-backend/internal/config"
	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/queue"
	"ict-access-backend/internal/repository"
	"ict-access-backend/internal/repository/postgres"
	"ict-access-backend/internal/service"
	"ict-access-backend/internal/workflow"
)

// The notifier consumes committed workflow transitions from the broker and
// handles the slow channel (email) outside the request path. In-app
// notifications and SMS are written by the server at dispatch time; this
// worker only adds what needs an external call per message.
func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ICT Access Notifier...", "queue", cfg.AMQP.Queue)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)
	emailSvc := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	worker := &notifyWorker{userRepo: store.UserRepository, emailSvc: emailSvc}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutting down notifier...")
		cancel()
	}()

	if err := queue.StartConsumer(ctx, cfg.AMQP.URL, cfg.AMQP.Queue, worker.handle); err != nil && ctx.Err() == nil {
		logger.Error("Consumer stopped", "error", err)
		log.Fatalf("Consumer stopped: %v", err)
	}
	logger.Info("Notifier stopped. Goodbye!")
}

type notifyWorker struct {
	userRepo repository.UserRepository
	emailSvc service.EmailService
}

func (w *notifyWorker) handle(ctx context.Context, msg queue.TransitionMessage) error {
	subject, body, ok := composeEmail(msg)
	if !ok {
		return nil
	}
	user, err := w.userRepo.GetByID(ctx, msg.RequesterID)
	if err != nil {
		return fmt.Errorf("load requester %d: %w", msg.RequesterID, err)
	}
	if user.Email == "" {
		return nil
	}
	return w.emailSvc.SendOutcome(ctx, user.Email, user.Name, subject, body)
}

// composeEmail decides whether a transition is worth an email and renders it.
// Intermediate approvals stay in-app only; the requester gets email at the
// milestones they actually act on or care about.
func composeEmail(msg queue.TransitionMessage) (subject, body string, ok bool) {
	switch msg.AggregateType {
	case workflow.AggregateAccessRequest:
		switch msg.ToStatus {
		case "REJECTED":
			return fmt.Sprintf("Access request #%d rejected", msg.AggregateID),
				fmt.Sprintf("Your ICT access request #%d was rejected at the %s stage. You may correct and resubmit it.", msg.AggregateID, msg.Stage), true
		case "COMPLETED":
			return fmt.Sprintf("Access request #%d completed", msg.AggregateID),
				fmt.Sprintf("Your ICT access request #%d has been implemented. The requested access is now active.", msg.AggregateID), true
		case "HEAD_IT_APPROVED":
			return fmt.Sprintf("Access request #%d approved", msg.AggregateID),
				fmt.Sprintf("Your ICT access request #%d passed all approvals and is awaiting implementation.", msg.AggregateID), true
		}
	case workflow.AggregateBooking:
		switch msg.ToStatus {
		case "APPROVED":
			return fmt.Sprintf("Device booking #%d approved", msg.AggregateID),
				fmt.Sprintf("Your device booking #%d was approved. Collect the device from the ICT office on your start date.", msg.AggregateID), true
		case "REJECTED":
			return fmt.Sprintf("Device booking #%d rejected", msg.AggregateID),
				fmt.Sprintf("Your device booking #%d was rejected by the ICT office.", msg.AggregateID), true
		}
	}
	return "", "", false
}
