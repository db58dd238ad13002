package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"reviewme/pkg/logger"
)

const defaultBaseURL = "http://localhost:5000"

func main() {
	logger.Init("info", "console")

	global := flag.NewFlagSet("reviewme", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	sessionPath := global.String("session", defaultSessionPath(), "session file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}
	args := global.Args()
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &apiClient{
		HTTP:        &http.Client{Timeout: 15 * time.Second},
		BaseURL:     *baseURL,
		SessionPath: *sessionPath,
	}

	var err error
	switch args[0] {
	case "auth":
		err = handleAuth(ctx, client, args[1], args[2:])
	case "review":
		err = handleReview(ctx, client, args[1], args[2:])
	case "feed":
		err = handleFeed(ctx, *baseURL, args[1], args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s %s failed", args[0], args[1])
	}
}

func handleAuth(ctx context.Context, c *apiClient, sub string, args []string) error {
	switch sub {
	case "sign-up":
		fs := flag.NewFlagSet("auth sign-up", flag.ExitOnError)
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		payload := map[string]string{"firstName": *first, "lastName": *last, "email": *email, "password": *password}
		env, _, err := c.do(ctx, http.MethodPost, "/api/auth/v1/sign-up", nil, payload, false)
		if err != nil {
			return err
		}
		fmt.Println(env.Message)
	case "sign-in":
		fs := flag.NewFlagSet("auth sign-in", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		payload := map[string]string{"email": *email, "password": *password}
		env, resp, err := c.do(ctx, http.MethodPost, "/api/auth/v1/sign-in", nil, payload, false)
		if err != nil {
			return err
		}
		sess, ok := sessionFromResponse(resp)
		if !ok {
			return errors.New("server did not set a session cookie")
		}
		if err := saveSession(c.SessionPath, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Println(env.Message)
		printJSON(env.Data)
	case "sign-out":
		env, _, err := c.do(ctx, http.MethodPost, "/api/auth/v1/sign-out", nil, nil, false)
		if err != nil {
			return err
		}
		if err := clearSession(c.SessionPath); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println(env.Message)
	default:
		return errors.New("usage: reviewme auth <sign-up|sign-in|sign-out>")
	}
	return nil
}

type reviewFlags struct {
	title, author, text *string
	rating              *int
}

func addReviewFlags(fs *flag.FlagSet) reviewFlags {
	return reviewFlags{
		title:  fs.String("title", "", "title"),
		author: fs.String("author", "", "author"),
		text:   fs.String("text", "", "review text"),
		rating: fs.Int("rating", 0, "rating 1-5"),
	}
}

func (f reviewFlags) payload() map[string]any {
	return map[string]any{"title": *f.title, "author": *f.author, "rating": *f.rating, "reviewText": *f.text}
}

func handleReview(ctx context.Context, c *apiClient, sub string, args []string) error {
	switch sub {
	case "create":
		fs := flag.NewFlagSet("review create", flag.ExitOnError)
		rf := addReviewFlags(fs)
		_ = fs.Parse(args)

		env, _, err := c.do(ctx, http.MethodPost, "/api/review/create", nil, rf.payload(), true)
		if err != nil {
			return err
		}
		fmt.Println(env.Message)
		printJSON(env.Data)
	case "list":
		fs := flag.NewFlagSet("review list", flag.ExitOnError)
		userID := fs.String("user", "", "owner id")
		title := fs.String("title", "", "exact title")
		author := fs.String("author", "", "exact author")
		id := fs.String("id", "", "review id")
		search := fs.String("q", "", "search title or author")
		start := fs.Int("start", 0, "start index")
		size := fs.Int("size", 10, "page size")
		sortField := fs.String("sort", "createdAt", "sort field")
		dir := fs.String("dir", "desc", "sort direction (asc|desc)")
		_ = fs.Parse(args)

		q := url.Values{}
		for k, v := range map[string]string{"userId": *userID, "title": *title, "author": *author, "r_id": *id, "searchTerm": *search} {
			if v != "" {
				q.Set(k, v)
			}
		}
		q.Set("startIndex", strconv.Itoa(*start))
		q.Set("pageSize", strconv.Itoa(*size))
		q.Set("sortField", *sortField)
		q.Set("sortDirection", *dir)

		env, _, err := c.do(ctx, http.MethodGet, "/api/review/getReviews", q, nil, false)
		if err != nil {
			return err
		}
		if env.TotalReviews != nil {
			fmt.Printf("total: %d\n", *env.TotalReviews)
		}
		printJSON(env.Data)
	case "update":
		fs := flag.NewFlagSet("review update", flag.ExitOnError)
		id := fs.String("id", "", "review id")
		rf := addReviewFlags(fs)
		_ = fs.Parse(args)
		if *id == "" {
			return errors.New("review id is required")
		}

		env, _, err := c.do(ctx, http.MethodPut, "/api/review/update/"+url.PathEscape(*id), nil, rf.payload(), true)
		if err != nil {
			return err
		}
		fmt.Println(env.Message)
		printJSON(env.Data)
	case "delete":
		fs := flag.NewFlagSet("review delete", flag.ExitOnError)
		id := fs.String("id", "", "review id")
		_ = fs.Parse(args)
		if *id == "" {
			return errors.New("review id is required")
		}

		env, _, err := c.do(ctx, http.MethodDelete, "/api/review/delete/"+url.PathEscape(*id), nil, nil, true)
		if err != nil {
			return err
		}
		fmt.Println(env.Message)
	default:
		return errors.New("usage: reviewme review <create|list|update|delete>")
	}
	return nil
}

func handleFeed(ctx context.Context, baseURL, sub string, args []string) error {
	if sub != "listen" {
		return errors.New("usage: reviewme feed listen [--tcp addr]")
	}
	fs := flag.NewFlagSet("feed listen", flag.ExitOnError)
	tcpAddr := fs.String("tcp", "", "read the feed from this TCP address instead of the websocket")
	_ = fs.Parse(args)

	if *tcpAddr != "" {
		return listenTCP(ctx, *tcpAddr)
	}
	wsURL, err := websocketURL(baseURL, "/api/review/feed")
	if err != nil {
		return err
	}
	return listenWebSocket(ctx, wsURL)
}

func listenTCP(ctx context.Context, addr string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info().Str("addr", addr).Msg("feed connected")
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Println(sc.Text())
	}
	if ctx.Err() != nil {
		return nil
	}
	return sc.Err()
}

func listenWebSocket(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info().Str("url", wsURL).Msg("feed connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Println(strings.TrimSpace(string(msg)))
	}
}

func printJSON(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func printUsage() {
	fmt.Println("reviewme [--api URL] [--session FILE] <command> <subcommand> [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth sign-up|sign-in|sign-out")
	fmt.Println("  review create|list|update|delete")
	fmt.Println("  feed listen [--tcp addr]")
}
