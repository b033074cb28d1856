package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"recommendation-service/configs"
	"recommendation-service/internal/engagement"
	"recommendation-service/pkg/db"
)

// Local mirrors of the collaborator-owned tables, enough to seed a dev
// stack. Production rows come from the users/post services.
type User struct {
	ID           uint `gorm:"primaryKey"`
	Nickname     string
	ProfileImage string
	CreatedAt    time.Time
}

type Post struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint
	Content    string
	Visibility string
	CreatedAt  time.Time
}

type Follow struct {
	FollowerID  uint
	FollowingID uint
	Status      string
	CreatedAt   time.Time
}

type Interaction struct {
	ID        uint `gorm:"primaryKey"`
	PostID    uint
	UserID    uint
	CreatedAt time.Time
}

type PostLike Interaction
type PostComment Interaction
type PostShare Interaction
type PostBookmark Interaction

func (PostLike) TableName() string     { return "post_likes" }
func (PostComment) TableName() string  { return "post_comments" }
func (PostShare) TableName() string    { return "post_shares" }
func (PostBookmark) TableName() string { return "post_bookmarks" }

const (
	numUsers = 50
	numPosts = 300
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "seeder").Logger()
	gofakeit.Seed(time.Now().UnixNano())

	cfg, err := configs.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}

	if err := conn.AutoMigrate(
		&User{}, &Post{}, &Follow{},
		&PostLike{}, &PostComment{}, &PostShare{}, &PostBookmark{},
		&engagement.InteractionSummary{}, &engagement.PostView{},
	); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	users := seedUsers(conn)
	posts := seedPosts(conn, users)
	follows := seedFollows(conn, users)
	likes := seedInteractions(conn, users, posts)
	views := seedViews(conn, users, posts)

	log.Info().
		Int("users", users).
		Int("posts", posts).
		Int("follows", follows).
		Int("interactions", likes).
		Int("views", views).
		Msg("seeding finished")
}

func seedUsers(conn *gorm.DB) int {
	for i := 0; i < numUsers; i++ {
		conn.Create(&User{
			Nickname:     gofakeit.Username(),
			ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%d", i),
			CreatedAt:    time.Now().AddDate(0, 0, -gofakeit.Number(30, 365)),
		})
	}
	return numUsers
}

func seedPosts(conn *gorm.DB, users int) int {
	visibilities := []string{"public", "public", "public", "followers", "private"}
	for i := 0; i < numPosts; i++ {
		conn.Create(&Post{
			UserID:     uint(gofakeit.Number(1, users)),
			Content:    gofakeit.Sentence(gofakeit.Number(5, 25)),
			Visibility: visibilities[rand.Intn(len(visibilities))],
			CreatedAt:  time.Now().Add(-time.Duration(gofakeit.Number(0, 72*14)) * time.Hour),
		})
	}
	return numPosts
}

func seedFollows(conn *gorm.DB, users int) int {
	n := 0
	for follower := 1; follower <= users; follower++ {
		for i := 0; i < gofakeit.Number(2, 8); i++ {
			following := gofakeit.Number(1, users)
			if following == follower {
				continue
			}
			status := "accepted"
			if gofakeit.Number(1, 10) == 1 {
				status = "pending"
			}
			conn.Create(&Follow{
				FollowerID:  uint(follower),
				FollowingID: uint(following),
				Status:      status,
				CreatedAt:   time.Now().AddDate(0, 0, -gofakeit.Number(1, 180)),
			})
			n++
		}
	}
	return n
}

func seedInteractions(conn *gorm.DB, users, posts int) int {
	n := 0
	for post := 1; post <= posts; post++ {
		likes := gofakeit.Number(0, 30)
		for i := 0; i < likes; i++ {
			conn.Create(&PostLike{
				PostID:    uint(post),
				UserID:    uint(gofakeit.Number(1, users)),
				CreatedAt: recentTimestamp(),
			})
			n++
		}
		for i := 0; i < likes/4; i++ {
			conn.Create(&PostComment{
				PostID:    uint(post),
				UserID:    uint(gofakeit.Number(1, users)),
				CreatedAt: recentTimestamp(),
			})
			n++
		}
		for i := 0; i < likes/8; i++ {
			conn.Create(&PostShare{PostID: uint(post), UserID: uint(gofakeit.Number(1, users)), CreatedAt: recentTimestamp()})
			conn.Create(&PostBookmark{PostID: uint(post), UserID: uint(gofakeit.Number(1, users)), CreatedAt: recentTimestamp()})
			n += 2
		}
	}
	return n
}

func seedViews(conn *gorm.DB, users, posts int) int {
	n := 0
	for post := 1; post <= posts; post++ {
		for i := 0; i < gofakeit.Number(0, 60); i++ {
			view := &engagement.PostView{
				PostID:    uint(post),
				Duration:  float64(gofakeit.Number(1, 300)),
				CreatedAt: recentTimestamp(),
			}
			if gofakeit.Bool() {
				view.UserID = uint(gofakeit.Number(1, users))
			} else {
				view.IP = gofakeit.IPv4Address()
			}
			conn.Create(view)
			n++
		}
	}
	return n
}

func recentTimestamp() time.Time {
	return time.Now().Add(-time.Duration(gofakeit.Number(0, 72)) * time.Hour)
}
