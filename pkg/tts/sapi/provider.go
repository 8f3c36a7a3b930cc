package sapi

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"sailtimer/pkg/tts"
)

// Name is the engine identifier used in config and stats.
const Name = "windows-sapi"

// Provider implements tts.Provider using Windows SAPI5 via OLE.
type Provider struct {
	mu sync.Mutex
}

// NewProvider creates a new SAPI5 provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return Name }

// rateToSAPI maps a speed multiplier onto SAPI's -10..10 scale,
// where +10 is roughly three times normal speed and -10 a third of it.
func rateToSAPI(rate float64) int32 {
	if rate <= 0 {
		return 0
	}
	r := math.Round(10 * math.Log(rate) / math.Log(3))
	return int32(max(-10, min(10, r)))
}

// Synthesize generates a .wav file using SAPI5.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string, rate float64, outputPath string) (string, error) {
	if runtime.GOOS != "windows" {
		return "", tts.ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return "", fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	if voiceID != "" {
		p.setVoiceByID(voice, voiceID)
	}
	if _, err := oleutil.PutProperty(voice, "Rate", rateToSAPI(rate)); err != nil {
		return "", fmt.Errorf("failed to set Rate: %w", err)
	}

	unknownStream, err := oleutil.CreateObject("SAPI.SpFileStream")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpFileStream: %w", err)
	}
	stream, err := unknownStream.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknownStream.Release()
		return "", fmt.Errorf("QueryInterface SpFileStream failed: %w", err)
	}
	defer stream.Release()

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}
	// 3 = SSFMCreateForWrite
	if _, err = oleutil.CallMethod(stream, "Open", fullPath, 3, false); err != nil {
		return "", fmt.Errorf("stream Open failed: %w", err)
	}
	defer func() {
		_, _ = oleutil.CallMethod(stream, "Close")
	}()

	if _, err = oleutil.PutPropertyRef(voice, "AudioOutputStream", stream); err != nil {
		return "", fmt.Errorf("failed to set AudioOutputStream: %w", err)
	}

	if _, err = oleutil.CallMethod(voice, "Speak", text, 0); err != nil {
		tts.Log("SAPI", text, rate, err)
		return "", fmt.Errorf("Speak failed: %w", err)
	}

	tts.Log("SAPI", text, rate, nil)
	return fullPath, nil
}

// Voices lists installed SAPI voices.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	if runtime.GOOS != "windows" {
		return nil, tts.ErrUnsupported
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, err
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, err
	}
	defer voice.Release()

	tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		return nil, fmt.Errorf("failed to get voices collection: %w", err)
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return nil, fmt.Errorf("voices collection is nil")
	}
	defer tokens.Release()

	var voices []tts.Voice
	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		if voice, ok := voiceFromToken(item); ok {
			voices = append(voices, voice)
		}
		return nil
	})
	return voices, nil
}

func voiceFromToken(item *ole.IDispatch) (tts.Voice, bool) {
	idVar, idErr := oleutil.CallMethod(item, "GetId")
	descVar, descErr := oleutil.CallMethod(item, "GetDescription", int32(0))
	if idErr != nil || descErr != nil {
		return tts.Voice{}, false
	}

	v := tts.Voice{ID: idVar.ToString(), Name: descVar.ToString()}
	if langVar, err := oleutil.CallMethod(item, "GetAttribute", "Language"); err == nil {
		v.Language = languageFromLCID(langVar.ToString())
	}
	return v, true
}

// languageFromLCID maps the hex LCIDs SAPI tokens carry (e.g. "409;9") to locale tags.
func languageFromLCID(lcid string) string {
	first, _, _ := strings.Cut(lcid, ";")
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "409":
		return "en-US"
	case "809":
		return "en-GB"
	case "c09":
		return "en-AU"
	case "407":
		return "de-DE"
	case "40c":
		return "fr-FR"
	case "410":
		return "it-IT"
	case "c0a", "40a":
		return "es-ES"
	case "413":
		return "nl-NL"
	default:
		return first
	}
}

func (p *Provider) setVoiceByID(voice *ole.IDispatch, voiceID string) {
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return
	}
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == voiceID {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}
