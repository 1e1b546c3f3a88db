package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Options selects the credentials and which Firebase clients to create
type Options struct {
	CredentialsPath string // empty uses Application Default Credentials
	ProjectID       string
	Firestore       bool
	Messaging       bool
}

// App holds the initialized Firebase app and the clients the notifier uses
type App struct {
	FirebaseApp *firebase.App
	Firestore   *firestore.Client
	Messaging   *messaging.Client
}

// InitFirebase initializes the Firebase application and the requested clients
func InitFirebase(ctx context.Context, opts Options, logger *zap.Logger) (*App, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsPath != "" {
		// Check if the credentials file exists
		if _, err := os.Stat(opts.CredentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase credentials file not found at %s", opts.CredentialsPath)
		}
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsPath))
	}

	var cfg *firebase.Config
	if opts.ProjectID != "" {
		cfg = &firebase.Config{ProjectID: opts.ProjectID}
	}

	firebaseApp, err := firebase.NewApp(ctx, cfg, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	app := &App{FirebaseApp: firebaseApp}

	if opts.Firestore {
		app.Firestore, err = firebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
	}

	if opts.Messaging {
		app.Messaging, err = firebaseApp.Messaging(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
		}
	}

	logger.Info("firebase app initialized",
		zap.Bool("firestore", app.Firestore != nil),
		zap.Bool("messaging", app.Messaging != nil),
	)
	return app, nil
}

// Close releases the Firestore client if one was created
func (a *App) Close() error {
	if a.Firestore != nil {
		return a.Firestore.Close()
	}
	return nil
}
