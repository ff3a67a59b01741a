package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-image-relay/internal/provider"
)

type fakeProvider struct {
	out        []byte
	err        error
	lastPrompt string
	lastRef    []byte
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, refPNG []byte) ([]byte, error) {
	f.lastPrompt = prompt
	f.lastRef = refPNG
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestGeneration_PrefixApplied(t *testing.T) {
	fp := &fakeProvider{out: []byte("img")}
	svc := &GenerationService{
		Provider:     fp,
		ProviderName: "openai",
		PromptPrefix: "P",
		RefPNG:       []byte("ref"),
	}

	if _, err := svc.Generate(context.Background(), "cat"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if fp.lastPrompt != "P cat" {
		t.Fatalf("dispatched prompt = %q; want %q", fp.lastPrompt, "P cat")
	}
	if string(fp.lastRef) != "ref" {
		t.Fatalf("reference image not passed through")
	}
}

func TestGeneration_EmptyPrefixPassThrough(t *testing.T) {
	fp := &fakeProvider{out: []byte("img")}
	svc := &GenerationService{Provider: fp, ProviderName: "openai", RefPNG: []byte("ref")}

	if _, err := svc.Generate(context.Background(), "cat"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if fp.lastPrompt != "cat" {
		t.Fatalf("dispatched prompt = %q; want unchanged %q", fp.lastPrompt, "cat")
	}
}

func TestGeneration_ErrorsPassThrough(t *testing.T) {
	want := &provider.Error{Kind: provider.KindHTTP, Message: "openai error 500: boom"}
	fp := &fakeProvider{err: want}
	svc := &GenerationService{Provider: fp, ProviderName: "openai", RefPNG: []byte("ref")}

	_, err := svc.Generate(context.Background(), "cat")
	var pe *provider.Error
	if !errors.As(err, &pe) || pe != want {
		t.Fatalf("Generate() error = %v; want the provider error unwrapped and unmodified", err)
	}
}

func TestGeneration_RefLoaded(t *testing.T) {
	svc := &GenerationService{RefPNG: nil}
	if svc.RefLoaded() {
		t.Fatalf("RefLoaded() = true with no reference image")
	}
	svc.RefPNG = []byte("x")
	if !svc.RefLoaded() {
		t.Fatalf("RefLoaded() = false with a reference image")
	}
}
