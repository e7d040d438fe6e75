package main

import (
	"chachat/backend/internal/config"
	"chachat/backend/internal/models"
	"chachat/backend/internal/storage"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
)

const usage = `Usage: admin <command> [args]

Commands:
  rooms [active|closed]   list recorded rooms
  reports [room_id]       list reports, optionally for one room
  watch                   stream audit events from Redis (needs REDIS_ADDR)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	db, err := storage.OpenDatabase(dbCfg.Driver, dbCfg.DSN)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "rooms":
		status := ""
		if len(os.Args) > 2 {
			status = os.Args[2]
			if status != models.RoomStatusActive && status != models.RoomStatusClosed {
				fmt.Println("Usage: admin rooms [active|closed]")
				os.Exit(1)
			}
		}
		if err := listRooms(ctx, storage.NewStorageService(db, nil, nil), status); err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
	case "reports":
		roomID := ""
		if len(os.Args) > 2 {
			id, err := models.ParseRoomID(os.Args[2])
			if err != nil {
				fmt.Println("Invalid room id. Please provide a UUID v4.")
				os.Exit(1)
			}
			roomID = id.String()
		}
		if err := listReports(ctx, storage.NewStorageService(db, nil, nil), roomID); err != nil {
			log.Fatalf("Error listing reports: %v", err)
		}
	case "watch":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			fmt.Println("REDIS_ADDR is required for watch")
			os.Exit(1)
		}
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		rdb, err := storage.OpenRedis(ctx, addr, os.Getenv("REDIS_PASSWORD"), redisDB)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()

		if err := watch(ctx, storage.NewStorageService(db, rdb, nil)); err != nil {
			log.Fatalf("Error watching audit events: %v", err)
		}
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func listRooms(ctx context.Context, s *storage.Service, status string) error {
	rooms, err := s.ListRooms(ctx, status)
	if err != nil {
		return err
	}

	table := newTable([]string{"Room", "User 1", "User 2", "Created", "Status", "Closed", "Reason"})
	for _, r := range rooms {
		closedAt, reason := "-", "-"
		if r.ClosedAt != nil {
			closedAt = r.ClosedAt.Format(time.RFC3339)
		}
		if r.CloseReason != nil {
			reason = *r.CloseReason
		}
		table.Append([]string{
			r.RoomID, r.User1SessionID, r.User2SessionID,
			r.CreatedAt.Format(time.RFC3339), r.Status, closedAt, reason,
		})
	}
	table.Render()
	fmt.Printf("%d room(s)\n", len(rooms))
	return nil
}

func listReports(ctx context.Context, s *storage.Service, roomID string) error {
	reports, err := s.ListReports(ctx, roomID)
	if err != nil {
		return err
	}

	table := newTable([]string{"Report", "Room", "Reporter", "Reason", "Created"})
	for _, r := range reports {
		table.Append([]string{r.ReportID, r.RoomID, r.ReporterSessionID, r.Reason, r.CreatedAt.Format(time.RFC3339)})
	}
	table.Render()

	if roomID != "" {
		counts, err := s.CountReportsByReason(ctx, roomID)
		if err != nil {
			return err
		}
		for reason, n := range counts {
			fmt.Printf("%s: %d\n", reason, n)
		}
	}
	return nil
}

func watch(ctx context.Context, s *storage.Service) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := s.SubscribeAudit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Listening on %s, Ctrl+C to stop\n", storage.AuditChannel)
	for e := range events {
		fmt.Printf("%s  %-15s room=%s reason=%s\n", e.At.Format(time.RFC3339), e.Kind, e.RoomID, e.Reason)
	}
	return nil
}
