package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	instagram "github.com/RavensCloud/instagram-gofun"
)

func main() {
	user := flag.String("user", "", "Instagram username to look up")
	reelURL := flag.String("url", "", "Instagram reel or post URL to look up")
	batch := flag.String("batch", "", "Comma-separated usernames to look up together")
	limit := flag.Int("limit", 12, "Max reels to return per account")
	proxyURL := flag.String("proxy", "", "Proxy URL (http/https/socks5)")
	flag.Parse()

	if *user == "" && *reelURL == "" && *batch == "" {
		fmt.Fprintln(os.Stderr, "usage: instagram --user <username> | --url <reel url> | --batch <a,b,c>")
		os.Exit(1)
	}

	s := instagram.New()
	defer s.Close()

	if *proxyURL != "" {
		if err := s.SetProxy(*proxyURL); err != nil {
			log.Fatalf("set proxy: %v", err)
		}
	}

	ctx := context.Background()

	if *reelURL != "" {
		reel, err := s.GetReelByURL(ctx, *reelURL)
		if err != nil {
			log.Fatalf("get reel: %v", err)
		}
		printReel(*reel)
		return
	}

	if *batch != "" {
		usernames := strings.Split(*batch, ",")
		for i := range usernames {
			usernames[i] = strings.TrimSpace(usernames[i])
		}
		outcomes := s.GetReelsBatch(ctx, usernames, *limit)
		for _, o := range outcomes {
			fmt.Printf("== @%s\n", o.Username)
			if o.Err != nil {
				fmt.Printf("   error: %v\n", o.Err)
				continue
			}
			printResult(o.Result)
		}
		return
	}

	res, err := s.GetReelsByUsername(ctx, *user, *limit)
	if err != nil {
		log.Fatalf("get reels: %v", err)
	}
	printResult(res)
}

func printResult(res *instagram.ReelsResult) {
	p := res.Profile
	fmt.Printf("User:      %s (%s)\n", p.Username, p.FullName)
	fmt.Printf("Followers: %d\n", p.Followers)
	fmt.Printf("Following: %d\n", p.Following)
	fmt.Printf("Posts:     %d\n", p.Posts)
	fmt.Printf("Verified:  %v\n", p.Verified)
	if p.Bio != "" {
		fmt.Printf("Bio:       %s\n", p.Bio)
	}
	if res.Degraded {
		fmt.Println("(degraded extraction: some fields may be missing)")
	}

	for i, r := range res.Reels {
		printed := r.Shortcode
		if !r.TakenAt.IsZero() {
			printed += " (" + r.TakenAt.Format("2006-01-02") + ")"
		}
		fmt.Printf("[%d] %s — %d views, %d likes, %d comments\n", i+1, printed, r.Views, r.Likes, r.Comments)
		if r.Caption != "" {
			fmt.Printf("    %s\n", r.Caption)
		}
	}
	fmt.Printf("\nTotal: %d reels (more: %v)\n", len(res.Reels), res.Pagination.HasNext)
}

func printReel(r instagram.Reel) {
	fmt.Printf("Reel:      %s\n", r.Shortcode)
	fmt.Printf("URL:       %s\n", r.URL)
	fmt.Printf("Author:    @%s\n", r.Username)
	fmt.Printf("Views:     %d\n", r.Views)
	fmt.Printf("Likes:     %d\n", r.Likes)
	fmt.Printf("Comments:  %d\n", r.Comments)
	fmt.Printf("Duration:  %.1fs\n", r.Duration)
	if !r.TakenAt.IsZero() {
		fmt.Printf("Posted:    %s\n", r.TakenAt.Format("2006-01-02"))
	}
	if r.VideoURL != "" {
		fmt.Printf("Video:     %s\n", r.VideoURL)
	}
	if r.Caption != "" {
		fmt.Printf("Caption:   %s\n", r.Caption)
	}
}
