package email

import (
	"context"
	"fmt"
	"time"

	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/logger"

	"github.com/go-resty/resty/v2"
)

//go:generate mockgen -source=loops.go -destination=../mocks/email_mocks.go -package=mocks

// Contact is a marketing audience entry kept in sync with the users table
type Contact struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Source     string `json:"source,omitempty"`
	Subscribed bool   `json:"subscribed"`
	UserGroup  string `json:"userGroup,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// Client is the outbound email channel
type Client interface {
	// SendTransactional returns nil only when the provider accepted the message
	SendTransactional(ctx context.Context, templateID, to string, variables map[string]interface{}) error
	UpdateContact(ctx context.Context, contact Contact) error
}

type transactionalRequest struct {
	TransactionalID string                 `json:"transactionalId"`
	Email           string                 `json:"email"`
	DataVariables   map[string]interface{} `json:"dataVariables,omitempty"`
}

type loopsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoopsClient talks to the Loops REST API
type LoopsClient struct {
	httpClient *resty.Client
}

// NewLoopsClient creates a Loops client authenticated with apiKey
func NewLoopsClient(baseURL, apiKey string) (*LoopsClient, error) {
	if apiKey == "" {
		return nil, apperrors.ErrLoopsAPIKeyMissing
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &LoopsClient{httpClient: client}, nil
}

// SendTransactional sends the transactional template templateID to the given address
func (c *LoopsClient) SendTransactional(ctx context.Context, templateID, to string, variables map[string]interface{}) error {
	if templateID == "" {
		return apperrors.ErrTemplateIDMissing
	}

	var response loopsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(transactionalRequest{TransactionalID: templateID, Email: to, DataVariables: variables}).
		SetResult(&response).
		SetError(&response).
		Post("/transactional")
	if err != nil {
		return fmt.Errorf("failed to call Loops transactional API: %w", err)
	}

	if resp.IsError() || !response.Success {
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"status":  resp.StatusCode(),
			"message": response.Message,
			"to":      to,
		}).Warn("Loops rejected transactional email")
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrDeliveryRejected, resp.StatusCode(), response.Message)
	}

	return nil
}

// UpdateContact creates or updates a contact in the Loops audience
func (c *LoopsClient) UpdateContact(ctx context.Context, contact Contact) error {
	var response loopsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(contact).
		SetResult(&response).
		SetError(&response).
		Put("/contacts/update")
	if err != nil {
		return fmt.Errorf("failed to call Loops contacts API: %w", err)
	}

	if resp.IsError() || !response.Success {
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrDeliveryRejected, resp.StatusCode(), response.Message)
	}

	return nil
}

// LogClient only logs outgoing mail. Used in development when no API key is set.
type LogClient struct{}

// NewLogClient creates a LogClient
func NewLogClient() *LogClient {
	return &LogClient{}
}

// SendTransactional logs the message and reports it as accepted
func (c *LogClient) SendTransactional(ctx context.Context, templateID, to string, variables map[string]interface{}) error {
	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"template_id": templateID,
		"to":          to,
		"variables":   variables,
	}).Info("Transactional email (log only)")
	return nil
}

// UpdateContact logs the contact
func (c *LogClient) UpdateContact(ctx context.Context, contact Contact) error {
	logger.WithContext(ctx).WithField("email", contact.Email).Info("Contact sync (log only)")
	return nil
}
