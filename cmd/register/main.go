package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/bwmarrin/discordgo"
)

var isProd bool

func main() {
	flag.BoolVar(&isProd, "prod", false, "")
	flag.Parse()

	cfg, err := breathe.LoadConfig(isProd)
	if err != nil {
		log.Fatalln(err)
	}
	bot, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatalln(err)
	}

	// Open a connection
	if err := bot.Open(); err != nil {
		log.Fatalln("Error opening connection:", err)
	}
	defer bot.Close()

	app, err := bot.Application("@me")
	if err != nil {
		log.Fatalln(err)
	}

	// an empty guild ID registers globally
	created, err := bot.ApplicationCommandBulkOverwrite(app.ID, cfg.GuildID, breathe.Commands)
	if err != nil {
		log.Fatalln(err)
	}

	for _, cmd := range created {
		fmt.Printf("%s: %s\n", cmd.Name, cmd.Description)
	}
}
