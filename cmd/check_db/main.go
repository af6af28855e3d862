package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"realtime-board/internal/cache"
	"realtime-board/internal/config"
	"realtime-board/internal/database"
	"realtime-board/internal/model"
	"realtime-board/internal/presence"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}
	cfg := config.FromEnv("")

	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// presentation 컬럼 타입 확인
	var dataType string
	query := `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_name = 'boards'
		AND column_name = 'presentation'
	`
	if err := db.WithContext(ctx).Raw(query).Scan(&dataType).Error; err != nil {
		log.Fatal("Failed to check presentation column:", err)
	}
	if dataType == "" {
		log.Fatal("❌ boards.presentation column is missing")
	}
	fmt.Printf("📊 boards.presentation type: %s\n", dataType)
	fmt.Println()

	// 테이블별 행 수
	fmt.Println("📋 Row counts:")
	for _, table := range []string{"users", "teams", "user_teams", "boards", "shapes", "paths"} {
		var count int64
		if err := db.WithContext(ctx).Table(table).Count(&count).Error; err != nil {
			fmt.Printf("  - %-11s ❌ %v\n", table, err)
			continue
		}
		fmt.Printf("  - %-11s %d\n", table, count)
	}
	fmt.Println()

	// 발표 스냅샷이 남아 있는 보드
	var boards []model.Board
	if err := db.WithContext(ctx).
		Where("presentation IS NOT NULL AND is_deleted = ?", false).
		Order("id").
		Find(&boards).Error; err != nil {
		log.Fatal("Failed to list presentations:", err)
	}

	if len(boards) == 0 {
		fmt.Println("✅ No stored presentations")
		return
	}

	fmt.Printf("🎤 Stored presentations: %d\n", len(boards))
	for i := range boards {
		snap, err := boards[i].DecodePresentation()
		if err != nil {
			fmt.Printf("  - board %d (%s): ❌ %v\n", boards[i].ID, boards[i].Name, err)
			continue
		}
		if snap == nil || snap.Presenter == nil {
			fmt.Printf("  - board %d (%s): ⚠️ snapshot without presenter\n", boards[i].ID, boards[i].Name)
			continue
		}
		fmt.Printf("  - board %d (%s): presenter=%s participants=%d\n",
			boards[i].ID, boards[i].Name, snap.Presenter.Username, len(snap.Participants))
	}

	// Redis 미러에 남은 접속자 (설정된 경우)
	if cfg.Redis.Addr == "" {
		return
	}
	rdb, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		fmt.Printf("⚠️ Redis unavailable: %v\n", err)
		return
	}
	defer rdb.Close()

	fmt.Println()
	fmt.Println("👥 Mirrored presence:")
	for i := range boards {
		bp, err := presence.GetBoardPresence(ctx, rdb, boards[i].ID)
		switch {
		case err != nil:
			fmt.Printf("  - board %d: ❌ %v\n", boards[i].ID, err)
		case bp == nil:
			fmt.Printf("  - board %d: no live viewers\n", boards[i].ID)
		default:
			fmt.Printf("  - board %d: %d viewers (updated %s)\n",
				boards[i].ID, len(bp.Users), time.Unix(bp.UpdatedAt, 0).Format(time.RFC3339))
		}
	}
}
