package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/repository"
)

// SmsGateway sends one message through the provider and returns the
// provider's message reference.
type SmsGateway interface {
	Send(ctx context.Context, phone, body string) (string, error)
}

type httpSmsGateway struct {
	baseURL    string
	apiKey     string
	senderName string
	client     *http.Client
}

// NewHttpSmsGateway talks to the hospital's SMS provider over its JSON API.
func NewHttpSmsGateway(baseURL, apiKey, senderName string) SmsGateway {
	return &httpSmsGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		senderName: senderName,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type gatewaySendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

type gatewaySendResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func (g *httpSmsGateway) Send(ctx context.Context, phone, body string) (string, error) {
	payload, err := json.Marshal(gatewaySendRequest{To: phone, Message: body, Sender: g.senderName})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	logger.ExternalServiceCall("sms-gateway", "send", "phone", phone)
	resp, err := g.client.Do(req)
	if err != nil {
		logger.ExternalServiceResult("sms-gateway", "send", err)
		return "", fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	var out gatewaySendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.ExternalServiceResult("sms-gateway", "send", err)
		return "", fmt.Errorf("sms gateway response decode failed: %w", err)
	}
	if resp.StatusCode >= 400 || out.Error != "" {
		err := fmt.Errorf("sms gateway error: status %d: %s", resp.StatusCode, out.Error)
		logger.ExternalServiceResult("sms-gateway", "send", err)
		return "", err
	}
	logger.ExternalServiceResult("sms-gateway", "send", nil, "provider_ref", out.MessageID)
	return out.MessageID, nil
}

type smsService struct {
	repo    repository.SmsRepository
	gateway SmsGateway
	enabled bool
}

func NewSmsService(repo repository.SmsRepository, gateway SmsGateway, enabled bool) SmsService {
	return &smsService{repo: repo, gateway: gateway, enabled: enabled}
}

func (s *smsService) Queue(ctx context.Context, msg *domain.SmsMessage) error {
	msg.Status = domain.SmsStatusQueued
	if err := s.repo.Create(ctx, msg); err != nil {
		return err
	}
	if !s.enabled {
		return nil
	}
	// Immediate attempt; a failure leaves the row QUEUED for the sweeper.
	if err := s.deliver(ctx, msg); err != nil {
		logger.Warn("Initial SMS delivery failed, left queued", "sms_id", msg.ID, "error", err)
	}
	return nil
}

func (s *smsService) ResendQueued(ctx context.Context, msg *domain.SmsMessage) error {
	if msg.Status != domain.SmsStatusQueued {
		return fmt.Errorf("sms %d is not queued", msg.ID)
	}
	if !s.enabled {
		return nil
	}
	return s.deliver(ctx, msg)
}

func (s *smsService) deliver(ctx context.Context, msg *domain.SmsMessage) error {
	ref, err := s.gateway.Send(ctx, msg.RecipientPhone, msg.Body)
	if err != nil {
		return err
	}
	now := time.Now()
	msg.ProviderRef = ref
	msg.Status = domain.SmsStatusSent
	msg.SentAt = &now
	return s.repo.Update(ctx, msg)
}

// HandleDeliveryReport correlates best-effort: an exact provider-reference
// match wins; otherwise the newest undelivered message to the same phone
// number is assumed to be the one reported. An unmatchable report is logged
// and dropped, never failed back to the gateway.
func (s *smsService) HandleDeliveryReport(ctx context.Context, report DeliveryReport) error {
	msg, err := s.lookup(ctx, report)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("Delivery report matched no stored SMS", "provider_ref", report.ProviderRef, "phone", report.Phone)
			return nil
		}
		return err
	}

	now := time.Now()
	if reportDelivered(report.Status) {
		msg.Status = domain.SmsStatusDelivered
		msg.DeliveredAt = &now
	} else {
		msg.Status = domain.SmsStatusFailed
		msg.FailReason = report.Reason
		if msg.FailReason == "" {
			msg.FailReason = report.Status
		}
	}
	return s.repo.Update(ctx, msg)
}

func (s *smsService) lookup(ctx context.Context, report DeliveryReport) (*domain.SmsMessage, error) {
	if report.ProviderRef != "" {
		msg, err := s.repo.GetByProviderRef(ctx, report.ProviderRef)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	if report.Phone == "" {
		return nil, sql.ErrNoRows
	}
	return s.repo.GetLatestUndeliveredByPhone(ctx, report.Phone)
}

func reportDelivered(status string) bool {
	switch strings.ToUpper(status) {
	case "DELIVERED", "DELIVRD", "SUCCESS":
		return true
	}
	return false
}
