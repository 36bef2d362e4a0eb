package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSMSLocalClient_Defaults(t *testing.T) {
	client := NewSMSLocalClient("api-key", "", "")
	if client.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want default", client.BaseURL)
	}
	if client.HTTPClient == nil || client.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("HTTPClient = %+v, want timeout %v", client.HTTPClient, defaultTimeout)
	}
	custom := NewSMSLocalClient("api-key", "https://custom.sms.local/api", "BOOKS")
	if custom.BaseURL != "https://custom.sms.local/api" || custom.Sender != "BOOKS" {
		t.Errorf("custom client = %+v", custom)
	}
}

func TestSendOTP_Success(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "test-api-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client := NewSMSLocalClient("test-api-key", server.URL, "BOOKS")
	if err := client.SendOTP(context.Background(), "+84911222333", "123456"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if body["route"] != "otp" || body["numbers"] != "84911222333" || body["variables"] != "123456" {
		t.Errorf("body = %v", body)
	}
	if body["sender_id"] != "BOOKS" {
		t.Errorf("sender_id = %v", body["sender_id"])
	}
}

func TestSendOTP_MissingAPIKey(t *testing.T) {
	err := NewSMSLocalClient("", "", "").SendOTP(context.Background(), "+84911222333", "123456")
	if err == nil || !strings.Contains(err.Error(), "API key not configured") {
		t.Fatalf("err = %v, want API key error", err)
	}
}

func TestSendOTP_Non200Status(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid request"}`))
		}))
		err := NewSMSLocalClient("api-key", server.URL, "").SendOTP(context.Background(), "+84911222333", "123456")
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		if !strings.Contains(err.Error(), "status=") || !strings.Contains(err.Error(), "invalid request") {
			t.Errorf("error message = %q", err.Error())
		}
	}
}

func TestSendOTP_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewSMSLocalClient("api-key", server.URL, "").SendOTP(ctx, "+84911222333", "123456"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestLogSender_DoesNotLogCode(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))
	if err := s.SendOTP(context.Background(), "+84911222333", "987654"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	for _, f := range entries[0].Context {
		if strings.Contains(f.String, "987654") {
			t.Error("code leaked into logs")
		}
	}
	if got := entries[0].ContextMap()["phone"]; got != "+84******333" {
		t.Errorf("phone field = %v", got)
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+84911222333"); got != "+84******333" {
		t.Errorf("MaskPhone = %q", got)
	}
	if got := MaskPhone("+123"); got != "***" {
		t.Errorf("MaskPhone short = %q", got)
	}
}
