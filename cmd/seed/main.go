package main

import (
	"context"
	"fmt"

	"github.com/itemforge/itemforge-backend/internal/config"
	"github.com/itemforge/itemforge-backend/internal/database"
	"github.com/itemforge/itemforge-backend/internal/logger"
	"github.com/itemforge/itemforge-backend/internal/model"
	"github.com/itemforge/itemforge-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo user with one material, its knowledge points, and a few
// hand-written questions so a fresh install has something to click on.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	materialRepo := repository.NewMaterialRepository(pool)
	kpRepo := repository.NewKnowledgePointRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Demo user ─────────────────────────────────────────────────────
	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{
		Email:        "demo@itemforge.local",
		Name:         "Demo Teacher",
		PasswordHash: string(hash),
	}
	if err := userRepo.Create(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo user")
	}
	fmt.Printf("Created user %s (id %d)\n", user.Email, user.ID)

	// ─── Demo material and knowledge points ────────────────────────────
	material := &model.Material{
		Title: "Introduction to Photosynthesis",
		Content: "Photosynthesis is the process by which green plants convert " +
			"light energy into chemical energy. It takes place in the chloroplasts " +
			"and produces glucose and oxygen from carbon dioxide and water. The " +
			"light-dependent reactions occur in the thylakoid membranes while the " +
			"Calvin cycle runs in the stroma.",
		CreatedBy: user.ID,
	}
	if err := materialRepo.Create(ctx, material); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo material")
	}
	fmt.Printf("Created material %q (%s)\n", material.Title, material.ID)

	for _, title := range []string{"Light-dependent reactions", "Calvin cycle"} {
		kp := &model.KnowledgePoint{
			MaterialID: material.ID,
			Title:      title,
			CreatedBy:  user.ID,
		}
		if err := kpRepo.Create(ctx, kp); err != nil {
			log.Fatal().Err(err).Msg("Failed to create knowledge point")
		}
		fmt.Printf("Created knowledge point %q (%s)\n", kp.Title, kp.ID)
	}

	// ─── Demo questions on the legacy direct path ──────────────────────
	questions := []model.Question{
		{
			Type:       model.QuestionTypeSingleChoice,
			Stem:       "Where do the light-dependent reactions of photosynthesis take place?",
			Options:    []string{"Thylakoid membranes", "Stroma", "Mitochondria", "Cell wall"},
			Answer:     "A",
			Difficulty: model.DifficultyEasy,
			Status:     model.QuestionStatusPending,
			CreatedBy:  user.ID,
		},
		{
			Type:       model.QuestionTypeTrueFalse,
			Stem:       "The Calvin cycle requires light to run directly.",
			Options:    []string{"true", "false"},
			Answer:     "B",
			Difficulty: model.DifficultyMedium,
			Status:     model.QuestionStatusPending,
			CreatedBy:  user.ID,
		},
	}
	if _, err := questionRepo.BulkCreate(ctx, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo questions")
	}
	fmt.Printf("Created %d demo questions\n", len(questions))

	fmt.Println("Seed complete")
}
