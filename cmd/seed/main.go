// Command seed fills the database with demo accounts and content.
package main

import (
	"context"
	"flag"
	"log"

	"charitydesk/internal/bootstrap"
	"charitydesk/internal/config"
	"charitydesk/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	editors := flag.Int("editors", defaults.Editors, "Number of editors to create")
	guests := flag.Int("guests", defaults.Guests, "Number of guests to create")
	news := flag.Int("news", defaults.News, "Number of news posts to create")
	stories := flag.Int("stories", defaults.Stories, "Number of stories to create")
	archiveEvery := flag.Int("archive-every", defaults.ArchiveEvery, "Archive every n-th news post (0 disables)")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	fixtures := flag.String("fixtures", "", "Optional YAML fixtures file with banks and pinned news")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	opts := defaults
	opts.Editors = *editors
	opts.Guests = *guests
	opts.News = *news
	opts.Stories = *stories
	opts.ArchiveEvery = *archiveEvery
	opts.Clean = *clean
	if *fixtures != "" {
		fx, err := seed.LoadFixtures(*fixtures)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		opts.Fixtures = fx
	}

	sum, err := seed.Run(ctx, db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d news (%d archived), %d stories, %d comments, %d likes, %d banks",
		sum.Users, sum.News, sum.Archived, sum.Stories, sum.Comments, sum.Likes, sum.Banks)
	log.Printf("Every account uses the password %q; the admin is admin@charity.test", seed.DemoPassword)
}
