package events

import (
	"context"
	"testing"

	"github.com/ruchit878/smart-job-kit-generator/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.Enabled() {
				t.Error("expected publisher to be disabled")
			}
			if p.writerCaptions != nil {
				t.Error("expected nil captions writer when disabled")
			}
			if p.writerQA != nil {
				t.Error("expected nil Q&A writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:       false,
		Brokers:       []string{"localhost:9092"},
		TopicCaptions: "test.captions",
		TopicQA:       "test.qa",
		Principal:     "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicCaptions != "test.captions" {
		t.Errorf("expected captions topic 'test.captions', got %s", p.topicCaptions)
	}
	if p.topicQA != "test.qa" {
		t.Errorf("expected Q&A topic 'test.qa', got %s", p.topicQA)
	}
}

func TestNew_EnabledCreatesWriters(t *testing.T) {
	p := New(&Config{
		Enabled:       true,
		Brokers:       []string{"localhost:9092"},
		TopicCaptions: "test.captions",
		TopicQA:       "test.qa",
	})
	defer p.Close()

	if !p.Enabled() {
		t.Fatal("expected publisher to be enabled")
	}
	if p.writerCaptions == nil || p.writerCaptions.Topic != "test.captions" {
		t.Error("expected captions writer bound to the captions topic")
	}
	if p.writerQA == nil || p.writerQA.Topic != "test.qa" {
		t.Error("expected Q&A writer bound to the Q&A topic")
	}
}

func TestPublisher_PublishCaption_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicCaptions: "test.captions", Principal: "test-svc"})

	event := models.CaptionMutation{
		EventType: models.EventCaptionAppend,
		SessionID: "sess-1",
		Role:      "user",
		Text:      "hello world",
	}

	if err := p.PublishCaption(context.Background(), "sess-1", event.EventType, event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishQA_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicQA: "test.qa"})

	event := models.QADocument{EventType: models.EventQAGenerated, ReportID: "42"}

	if err := p.PublishQA(context.Background(), "42", event.EventType, event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := make(chan int)
	if err := p.PublishCaption(context.Background(), "k", models.EventCaptionAppend, event); err == nil {
		t.Error("expected error for unmarshalable caption event")
	}
	if err := p.PublishQA(context.Background(), "k", models.EventQAGenerated, event); err == nil {
		t.Error("expected error for unmarshalable Q&A event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
