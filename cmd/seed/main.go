// seed inserts a demo user with 30 nights of sleep logs for local testing.
// Idempotent: skips inserts if the demo user already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"sleeptracker/backend/internal/config"
	"sleeptracker/backend/internal/db"
	sleepdomain "sleeptracker/backend/internal/sleeplog/domain"
	"sleeptracker/backend/internal/sleeplog/engine"
	sleeprepo "sleeptracker/backend/internal/sleeplog/repository"
	userdomain "sleeptracker/backend/internal/user/domain"
	userrepo "sleeptracker/backend/internal/user/repository"
)

const (
	demoUserID   = "demo-user-001"
	demoUserName = "Demo Sleeper"
	nights       = 30
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; set it in the environment or a .env file")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	sleeps := sleeprepo.NewPostgresRepository(conn)

	existing, err := users.GetByID(ctx, demoUserID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", demoUserID)
		return
	}

	now := time.Now()
	if err := users.Create(ctx, &userdomain.User{
		ID: demoUserID, Name: demoUserName, CreatedAt: now.UTC(), UpdatedAt: now.UTC(),
	}); err != nil {
		log.Fatalf("create demo user: %v", err)
	}

	feelings := []sleepdomain.MorningFeeling{sleepdomain.FeelingGood, sleepdomain.FeelingOK, sleepdomain.FeelingGood, sleepdomain.FeelingBad}
	today := now.In(loc)
	for i := 0; i < nights; i++ {
		wake := time.Date(today.Year(), today.Month(), today.Day()-i, 6, 15*(i%5), 0, 0, loc)
		bed := time.Date(wake.Year(), wake.Month(), wake.Day()-1, 22, 10*(i%4), 0, 0, loc)
		s := &sleepdomain.SleepSession{
			ID:             uuid.New().String(),
			UserID:         demoUserID,
			SleepDate:      engine.DateOf(wake, loc),
			BedtimeStart:   bed,
			BedtimeEnd:     wake,
			MorningFeeling: feelings[i%len(feelings)],
			CreatedAt:      wake.UTC(),
		}
		s.DeriveTotalTimeInBed()
		if err := s.Validate(); err != nil {
			log.Fatalf("seed night %d: %v", i, err)
		}
		if err := sleeps.Create(ctx, s); err != nil {
			log.Fatalf("create night %d: %v", i, err)
		}
	}
	log.Printf("Seed complete: user %s with %d nights.", demoUserID, nights)
}
