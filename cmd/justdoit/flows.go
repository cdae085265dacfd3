package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/quailyquaily/justdoit/internal/broadcast"
	"github.com/quailyquaily/justdoit/internal/content"
)

// flowsFromViper returns the enabled broadcast flows whose collaborator is
// configured.
func flowsFromViper(logger *slog.Logger, c collaborators, pack content.Pack) []broadcast.Flow {
	var flows []broadcast.Flow
	if viper.GetBool("broadcast.commentary.enabled") {
		if c.agent == nil {
			logger.Warn("broadcast_flow_disabled", "flow", broadcast.CommentaryFlowName, "reason", "agent not configured")
		} else {
			flows = append(flows, broadcast.CommentaryFlow(c.agent, pack.Commentary, viper.GetString("broadcast.commentary.schedule")))
		}
	}
	if viper.GetBool("broadcast.poster.enabled") {
		if c.images == nil {
			logger.Warn("broadcast_flow_disabled", "flow", broadcast.PosterFlowName, "reason", "image API not configured")
		} else {
			flows = append(flows, broadcast.PosterFlow(c.images, pack.Poster, viper.GetString("broadcast.poster.schedule")))
		}
	}
	return flows
}

func broadcastOptionsFromViper() broadcast.Options {
	return broadcast.Options{
		SendRate:  viper.GetFloat64("broadcast.send_rate"),
		SendBurst: viper.GetInt("broadcast.send_burst"),
	}
}
