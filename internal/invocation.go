package internal

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	CommandRank      = "rank"
	confirmButtonID  = "primary"
	rankOptionRiotID = "riot-id"
)

type InvocationSource int

const (
	SourceSlashCommand InvocationSource = iota + 1
	SourceConfirmButton
)

func (s InvocationSource) String() string {
	switch s {
	case SourceSlashCommand:
		return "slash_command"
	case SourceConfirmButton:
		return "confirm_button"
	default:
		return "unknown"
	}
}

// Invocation is one user interaction normalized for command handling.
type Invocation struct {
	ID          string
	Source      InvocationSource
	Command     string
	UserID      string
	GuildID     string
	ChannelID   string
	Interaction *discordgo.Interaction
	ReceivedAt  time.Time
	// Deferred is set once the interaction has been acknowledged. The answer
	// then goes out as a followup message.
	Deferred bool
}

func newInvocation(i *discordgo.Interaction, source InvocationSource, command string) *Invocation {
	return &Invocation{
		ID:          uuid.NewString(),
		Source:      source,
		Command:     command,
		UserID:      interactionUserID(i),
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		Interaction: i,
		ReceivedAt:  time.Now(),
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type interactionClass int

const (
	interactionIgnored interactionClass = iota
	interactionConfirm
	interactionRankCommand
)

// classifyInteraction decides what an incoming interaction asks for. arg is
// the first option value of a rank slash command.
func classifyInteraction(i *discordgo.Interaction, confirmLabel string) (class interactionClass, arg string) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		if data.ComponentType != discordgo.ButtonComponent {
			return interactionIgnored, ""
		}
		if confirmLabel != "" && buttonLabel(i.Message, data.CustomID) == confirmLabel {
			return interactionConfirm, ""
		}
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name != CommandRank || len(data.Options) == 0 {
			return interactionIgnored, ""
		}
		return interactionRankCommand, optionString(data.Options[0])
	}
	return interactionIgnored, ""
}

func optionString(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if opt == nil || opt.Value == nil {
		return ""
	}
	if s, ok := opt.Value.(string); ok {
		return s
	}
	return fmt.Sprint(opt.Value)
}

// buttonLabel finds the label of the button with customID on the message the
// interaction came from.
func buttonLabel(msg *discordgo.Message, customID string) string {
	if msg == nil {
		return ""
	}
	return findButtonLabel(msg.Components, customID)
}

func findButtonLabel(components []discordgo.MessageComponent, customID string) string {
	for _, comp := range components {
		switch c := comp.(type) {
		case *discordgo.ActionsRow:
			if label := findButtonLabel(c.Components, customID); label != "" {
				return label
			}
		case discordgo.ActionsRow:
			if label := findButtonLabel(c.Components, customID); label != "" {
				return label
			}
		case *discordgo.Button:
			if c.CustomID == customID {
				return c.Label
			}
		case discordgo.Button:
			if c.CustomID == customID {
				return c.Label
			}
		}
	}
	return ""
}
