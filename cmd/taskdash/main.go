// Command taskdash is a terminal dashboard over the tasks REST API. It fetches the
// task collection once and refines what is shown locally, only going back to the
// server on an explicit refresh.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taksyapp/tasks-api/pkg/apiclient"
)

func main() {
	var apiURL, stateFile string

	flag.StringVar(&apiURL, "api", "http://localhost:9234", "Tasks API base URL")
	flag.StringVar(&stateFile, "state", defaultStateFile(), "Session state filename")
	flag.Parse()

	if err := run(apiURL, stateFile); err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}
}

func run(apiURL, stateFile string) error {
	client := apiclient.NewClient(apiURL)

	session, err := loadSession(stateFile)
	if err == nil && session.Token != "" {
		client.SetToken(session.Token)
	} else {
		email := os.Getenv("TASKS_EMAIL")
		password := os.Getenv("TASKS_PASSWORD")
		if email == "" || password == "" {
			return fmt.Errorf("no stored session, set TASKS_EMAIL and TASKS_PASSWORD to log in")
		}

		s, err := client.Login(context.Background(), email, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		session = sessionState{ID: s.ID, Email: s.Email, Role: s.Role, Token: s.Token}
		if err := saveSession(stateFile, session); err != nil {
			return fmt.Errorf("saveSession: %w", err)
		}
	}

	model := newModel(client, session, stateFile)

	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(dashModel); ok && m.fatalErr != nil {
		return m.fatalErr
	}

	return nil
}

type sessionState struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskdash.json"
	}

	return filepath.Join(home, ".taskdash", "session.json")
}

func loadSession(filename string) (sessionState, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return sessionState{}, err
	}

	var session sessionState
	if err := json.Unmarshal(data, &session); err != nil {
		return sessionState{}, err
	}

	return session, nil
}

func saveSession(filename string, session sessionState) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0o600)
}

func clearSession(filename string) error {
	err := os.Remove(filename)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
