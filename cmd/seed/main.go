// Command seed loads a demo roster and prints access tokens for it.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"classattend/internal/app"
	"classattend/internal/auth"
	"classattend/internal/config"
	"classattend/internal/core"
	"classattend/internal/logging"
	"classattend/internal/roster"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("backend init failed", zap.Error(err))
	}
	defer backend.Close(context.Background())

	if cfg.StoreBackend == "memory" {
		logger.Warn("seeding the memory store; data is gone when this process exits")
	}
	svc := roster.NewService(backend.Roster)
	if err := seed(ctx, svc, cfg); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, svc *roster.Service, cfg config.App) error {
	if _, err := svc.GetCourseByCode(ctx, "CS101"); err == nil {
		fmt.Println("roster already seeded")
		return nil
	} else if !core.IsNotFound(err) {
		return err
	}

	var teachers []roster.Teacher
	for _, t := range []roster.Teacher{
		{Code: "T-001", Name: "Grace Hopper", Email: "grace@example.edu", Department: "Computer Science"},
		{Code: "T-002", Name: "Edsger Dijkstra", Email: "edsger@example.edu", Department: "Computer Science"},
	} {
		created, err := svc.CreateTeacher(ctx, t)
		if err != nil {
			return err
		}
		teachers = append(teachers, created)
	}

	var students []roster.Student
	for i, name := range []string{"Alice Johnson", "Bob Smith", "Carol White", "Dan Brown"} {
		st, err := svc.CreateStudent(ctx, roster.Student{
			Code:       fmt.Sprintf("S-%03d", i+1),
			Name:       name,
			Department: "Computer Science",
			Year:       2,
		})
		if err != nil {
			return err
		}
		students = append(students, st)
	}

	courses := []roster.Course{
		{Code: "CS101", Name: "Introduction to Computer Science", TeacherID: teachers[0].ID,
			StudentIDs: []string{students[0].ID, students[1].ID, students[2].ID}},
		{Code: "CS201", Name: "Data Structures", TeacherID: teachers[1].ID,
			StudentIDs: []string{students[1].ID, students[3].ID}},
	}
	for _, c := range courses {
		created, err := svc.CreateCourse(ctx, c)
		if err != nil {
			return err
		}
		fmt.Printf("course  %-6s %s\n", created.Code, created.ID)
	}

	for _, t := range teachers {
		tok, err := auth.Issue(t.ID, auth.RoleTeacher, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			return err
		}
		fmt.Printf("teacher %-6s %s\n  token: %s\n", t.Code, t.ID, tok.AccessToken)
	}
	for _, st := range students {
		tok, err := auth.Issue(st.ID, auth.RoleStudent, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			return err
		}
		fmt.Printf("student %-6s %s\n  token: %s\n", st.Code, st.ID, tok.AccessToken)
	}
	return nil
}
