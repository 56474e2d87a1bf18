package config

import (
	"maps"

	"github.com/soyeahso/matchat/internal/logging"
)

// Build layers partial over DefaultOptions and replaces invalid values with
// their defaults, logging a warning for each replacement.
func Build(partial Options, log *logging.Logger) Options {
	opts := Merge(DefaultOptions(), partial)
	Normalize(&opts, log)
	return opts
}

// Merge returns base with every supplied field of over applied on top.
// Nested groups are merged field by field, so a partial Colors only replaces
// the colors it names. Header maps are merged key by key into a fresh map.
func Merge(base, over Options) Options {
	out := base

	out.Position = pick(base.Position, over.Position)
	out.AvatarURL = pick(base.AvatarURL, over.AvatarURL)
	out.Title = pick(base.Title, over.Title)
	out.WelcomeMessage = pick(base.WelcomeMessage, over.WelcomeMessage)
	out.BackgroundImage = pick(base.BackgroundImage, over.BackgroundImage)
	out.BackgroundPattern = pick(base.BackgroundPattern, over.BackgroundPattern)
	out.Theme = pick(base.Theme, over.Theme)
	out.APIURL = pick(base.APIURL, over.APIURL)
	out.PositionOffset = pick(base.PositionOffset, over.PositionOffset)

	out.Icons = Icons{
		Chat:  pick(base.Icons.Chat, over.Icons.Chat),
		Close: pick(base.Icons.Close, over.Icons.Close),
		Send:  pick(base.Icons.Send, over.Icons.Send),
	}
	out.BubbleStyle = BubbleStyles{
		Bot:  mergeBubble(base.BubbleStyle.Bot, over.BubbleStyle.Bot),
		User: mergeBubble(base.BubbleStyle.User, over.BubbleStyle.User),
	}
	out.Colors = Colors{
		Primary:     pick(base.Colors.Primary, over.Colors.Primary),
		PrimaryDark: pick(base.Colors.PrimaryDark, over.Colors.PrimaryDark),
		Secondary:   pick(base.Colors.Secondary, over.Colors.Secondary),
		Text:        pick(base.Colors.Text, over.Colors.Text),
		LightText:   pick(base.Colors.LightText, over.Colors.LightText),
		White:       pick(base.Colors.White, over.Colors.White),
	}
	out.Dimensions = Dimensions{
		Width:           pick(base.Dimensions.Width, over.Dimensions.Width),
		Height:          pick(base.Dimensions.Height, over.Dimensions.Height),
		AvatarSize:      pick(base.Dimensions.AvatarSize, over.Dimensions.AvatarSize),
		MessageMaxWidth: pick(base.Dimensions.MessageMaxWidth, over.Dimensions.MessageMaxWidth),
	}

	if over.MessageLimit != 0 {
		out.MessageLimit = over.MessageLimit
	}

	out.Webhook.Method = pick(base.Webhook.Method, over.Webhook.Method)
	out.Webhook.Headers = make(map[string]string, len(base.Webhook.Headers)+len(over.Webhook.Headers))
	maps.Copy(out.Webhook.Headers, base.Webhook.Headers)
	maps.Copy(out.Webhook.Headers, over.Webhook.Headers)

	if over.Timing.CloseDelay != 0 {
		out.Timing.CloseDelay = over.Timing.CloseDelay
	}
	if over.Timing.FallbackDelay != 0 {
		out.Timing.FallbackDelay = over.Timing.FallbackDelay
	}
	if over.Timing.RequestTimeout != 0 {
		out.Timing.RequestTimeout = over.Timing.RequestTimeout
	}

	if over.OnMessageSend != nil {
		out.OnMessageSend = over.OnMessageSend
	}
	if over.OnWidgetOpen != nil {
		out.OnWidgetOpen = over.OnWidgetOpen
	}
	if over.OnWidgetClose != nil {
		out.OnWidgetClose = over.OnWidgetClose
	}

	return out
}

func mergeBubble(base, over BubbleStyle) BubbleStyle {
	return BubbleStyle{
		BorderRadius: pick(base.BorderRadius, over.BorderRadius),
		MinWidth:     pick(base.MinWidth, over.MinWidth),
		Padding:      pick(base.Padding, over.Padding),
	}
}

func pick(base, over string) string {
	if over != "" {
		return over
	}
	return base
}
