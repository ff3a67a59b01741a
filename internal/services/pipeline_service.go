// Package services – PipelineService.
//
// One inbound webhook delivery flows through a short admission pipeline:
// dedup check, access check, prompt extraction, dispatch, reply-or-error.
// Deliveries may be processed concurrently; the dedup window and the access
// guard carry their own locks, and neither lock is held while a provider
// call is in flight.
package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-image-relay/internal/access"
	"github.com/tbourn/go-image-relay/internal/dedup"
	"github.com/tbourn/go-image-relay/internal/telegram"
)

// User-facing copy. Raw provider detail never appears here.
const (
	helpText = "I generate images from your *text prompt* using this project's fixed reference image.\n\n" +
		"In groups: use `/pic <prompt>`.\n" +
		"In DM: send any prompt text (no command needed) or use `/pic <prompt>`.\n\n" +
		"Commands:\n" +
		"/start – welcome\n" +
		"/help – how to use\n" +
		"/info – what I do\n" +
		"/status – service status\n" +
		"/redeem <CODE> – unlock access with a code (if required)\n"

	infoText = "This bot generates images from *your text prompt* using a fixed project reference image. 🎯"

	picUsageText    = "Usage: `/pic <your prompt>`"
	redeemUsageText = "Usage: /redeem <CODE>"

	redeemNotRequiredText = "Redeem not required."
	redeemOKText          = "✅ Access unlocked!"
	redeemInvalidText     = "❌ Invalid code."

	restrictedCommandText  = "🔒 Access restricted. If you have a code, DM me and send `/redeem <CODE>`."
	restrictedFreeformText = "🔒 Access restricted. If you have a code, send `/redeem <CODE>`."
	restrictedNoCodeText   = "🔒 Access restricted."

	contentRestrictedText = "🚫 Sorry, this image can’t be generated due to copyright or content restrictions."
	genericFailureText    = "⚠️ Something went wrong while generating the image. Please try again later."

	successCaptionPrefix = "✅ Done!\nPrompt: "
)

// ImageGenerator is the dispatcher contract the pipeline depends on;
// *GenerationService implements it.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
	RefLoaded() bool
}

// PipelineService routes every inbound update to a terminal outcome:
// a reply, a photo, or a silent discard.
type PipelineService struct {
	Window    *dedup.Window
	Guard     *access.Guard
	Sender    telegram.Sender
	Generator ImageGenerator
}

// HandleUpdate processes one webhook delivery to completion. It never
// returns an error: every failure ends in a safe user-facing notice or a
// logged discard.
func (p *PipelineService) HandleUpdate(ctx context.Context, upd telegram.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		updatesTotal.WithLabelValues(outcomeIgnored).Inc()
		return
	}

	if p.Window.Seen(dedup.Key{ChatID: msg.Chat.ID, MessageID: msg.MessageID}) {
		log.Debug().
			Int64("chat_id", msg.Chat.ID).
			Int64("message_id", msg.MessageID).
			Msg("duplicate delivery discarded")
		updatesTotal.WithLabelValues(outcomeDuplicate).Inc()
		return
	}

	cmd, arg := parseCommand(msg.Text)
	switch cmd {
	case "start":
		p.reply(ctx, msg, "Hey! 👋\n"+helpText)
		updatesTotal.WithLabelValues(outcomeInfo).Inc()
	case "help":
		p.reply(ctx, msg, helpText)
		updatesTotal.WithLabelValues(outcomeInfo).Inc()
	case "info":
		p.reply(ctx, msg, infoText)
		updatesTotal.WithLabelValues(outcomeInfo).Inc()
	case "status":
		p.reply(ctx, msg, p.statusText())
		updatesTotal.WithLabelValues(outcomeInfo).Inc()
	case "redeem":
		p.handleRedeem(ctx, msg, arg)
	case "pic":
		p.handlePic(ctx, msg, arg, restrictedCommandText)
	case "":
		p.handleFreeText(ctx, msg)
	default:
		// Unknown command: not ours to answer.
		updatesTotal.WithLabelValues(outcomeIgnored).Inc()
	}
}

// handleRedeem processes a /redeem attempt. Attempts are deliberately not
// rate limited.
func (p *PipelineService) handleRedeem(ctx context.Context, msg *telegram.Message, code string) {
	updatesTotal.WithLabelValues(outcomeInfo).Inc()
	if !p.Guard.CodeRequired() {
		p.reply(ctx, msg, redeemNotRequiredText)
		return
	}
	if code == "" {
		p.reply(ctx, msg, redeemUsageText)
		return
	}
	switch p.Guard.Redeem(msg.From.ID, code) {
	case access.RedeemOK:
		log.Info().Int64("user_id", msg.From.ID).Msg("access code redeemed")
		p.reply(ctx, msg, redeemOKText)
	default:
		p.reply(ctx, msg, redeemInvalidText)
	}
}

// handlePic runs the admission pipeline for an explicit /pic command.
func (p *PipelineService) handlePic(ctx context.Context, msg *telegram.Message, prompt, restrictedText string) {
	if !p.Guard.IsAllowed(msg.From.ID) {
		if !p.Guard.CodeRequired() {
			restrictedText = restrictedNoCodeText
		}
		p.reply(ctx, msg, restrictedText)
		updatesTotal.WithLabelValues(outcomeDenied).Inc()
		return
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		p.reply(ctx, msg, picUsageText)
		updatesTotal.WithLabelValues(outcomeNoPrompt).Inc()
		return
	}

	log.Info().
		Int64("user_id", msg.From.ID).
		Int64("chat_id", msg.Chat.ID).
		Int64("message_id", msg.MessageID).
		Msg("generation requested")
	p.generateAndReply(ctx, msg, prompt)
}

// handleFreeText treats any non-command text in a private chat as a prompt.
// Group chats require the explicit command.
func (p *PipelineService) handleFreeText(ctx context.Context, msg *telegram.Message) {
	if !msg.Chat.IsPrivate() {
		updatesTotal.WithLabelValues(outcomeIgnored).Inc()
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		updatesTotal.WithLabelValues(outcomeIgnored).Inc()
		return
	}

	if !p.Guard.IsAllowed(msg.From.ID) {
		notice := restrictedFreeformText
		if !p.Guard.CodeRequired() {
			notice = restrictedNoCodeText
		}
		p.reply(ctx, msg, notice)
		updatesTotal.WithLabelValues(outcomeDenied).Inc()
		return
	}

	log.Info().
		Int64("user_id", msg.From.ID).
		Int64("chat_id", msg.Chat.ID).
		Int64("message_id", msg.MessageID).
		Msg("freeform generation requested")
	p.generateAndReply(ctx, msg, text)
}

// generateAndReply dispatches an admitted, deduplicated request and replies
// with the image or a safe failure notice. A single attempt; no retries.
func (p *PipelineService) generateAndReply(ctx context.Context, msg *telegram.Message, prompt string) {
	if err := p.Sender.SendChatAction(ctx, msg.Chat.ID, telegram.UploadPhotoAction); err != nil {
		log.Debug().Err(err).Msg("chat action failed")
	}

	out, err := p.Generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().
			Err(err).
			Int64("user_id", msg.From.ID).
			Int64("chat_id", msg.Chat.ID).
			Msg("generation failed")
		if IsContentRestricted(err.Error()) {
			p.reply(ctx, msg, contentRestrictedText)
			updatesTotal.WithLabelValues(outcomeRestricted).Inc()
		} else {
			p.reply(ctx, msg, genericFailureText)
			updatesTotal.WithLabelValues(outcomeFailed).Inc()
		}
		return
	}

	if err := p.Sender.SendPhoto(ctx, msg.Chat.ID, out, "result.png", successCaptionPrefix+prompt); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("photo reply failed")
		updatesTotal.WithLabelValues(outcomeFailed).Inc()
		return
	}
	updatesTotal.WithLabelValues(outcomeSuccess).Inc()
}

func (p *PipelineService) reply(ctx context.Context, msg *telegram.Message, text string) {
	if err := p.Sender.SendMessage(ctx, msg.Chat.ID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("text reply failed")
	}
}

func (p *PipelineService) statusText() string {
	ref := "❌"
	if p.Generator.RefLoaded() {
		ref = "✅"
	}
	return "Ref image: " + ref + "\nWebhook: ✅ (webhook mode)"
}

// parseCommand splits a message into a command name and its argument.
// Non-command text returns ("", text). A "@BotName" suffix on the command
// token is ignored, as sent in group chats.
func parseCommand(text string) (name, arg string) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "/") {
		return "", t
	}
	first := t
	if i := strings.IndexFunc(t, unicode.IsSpace); i >= 0 {
		first = t[:i]
		arg = strings.TrimSpace(t[i:])
	}
	name = strings.TrimPrefix(first, "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return name, arg
}
