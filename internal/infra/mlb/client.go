package mlb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gameday-trivia-service/internal/domain"
)

const DefaultBaseURL = "https://statsapi.mlb.com"

// Client talks to the MLB stats API. Every request is bounded by the
// underlying http.Client timeout plus the caller's context.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mlb request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mlb request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mlb decode: %w", err)
	}
	return nil
}

type liveFeed struct {
	GameData struct {
		Status struct {
			DetailedState     string `json:"detailedState"`
			AbstractGameState string `json:"abstractGameState"`
		} `json:"status"`
		Teams struct {
			Home struct {
				Name string `json:"name"`
			} `json:"home"`
			Away struct {
				Name string `json:"name"`
			} `json:"away"`
		} `json:"teams"`
	} `json:"gameData"`
	LiveData struct {
		Linescore struct {
			CurrentInning        int    `json:"currentInning"`
			InningState          string `json:"inningState"`
			CurrentInningOrdinal string `json:"currentInningOrdinal"`
			Balls                int    `json:"balls"`
			Strikes              int    `json:"strikes"`
			Outs                 int    `json:"outs"`
			Teams                struct {
				Home struct {
					Runs int `json:"runs"`
					Hits int `json:"hits"`
				} `json:"home"`
				Away struct {
					Runs int `json:"runs"`
					Hits int `json:"hits"`
				} `json:"away"`
			} `json:"teams"`
			Offense struct {
				First  *feedPlayer `json:"first"`
				Second *feedPlayer `json:"second"`
				Third  *feedPlayer `json:"third"`
			} `json:"offense"`
		} `json:"linescore"`
		Plays struct {
			CurrentPlay struct {
				Matchup struct {
					Batter  feedPlayer `json:"batter"`
					Pitcher feedPlayer `json:"pitcher"`
				} `json:"matchup"`
			} `json:"currentPlay"`
		} `json:"plays"`
	} `json:"liveData"`
}

type feedPlayer struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}

// FetchLive normalizes the live feed into a LiveContext snapshot.
func (c *Client) FetchLive(ctx context.Context, gamePk int64) (domain.LiveContext, error) {
	var feed liveFeed
	path := fmt.Sprintf("/api/v1.1/game/%d/feed/live", gamePk)
	if err := c.getJSON(ctx, path, nil, &feed); err != nil {
		return domain.LiveContext{}, err
	}

	status := feed.GameData.Status.DetailedState
	if status == "" {
		status = feed.GameData.Status.AbstractGameState
	}
	if status == "" {
		status = "Scheduled"
	}

	ls := feed.LiveData.Linescore
	inningDesc := "-"
	if ls.CurrentInning > 0 {
		inningDesc = ls.InningState + " " + ls.CurrentInningOrdinal
	}

	lc := domain.LiveContext{
		GamePk:     gamePk,
		Status:     status,
		Inning:     ls.CurrentInning,
		InningDesc: inningDesc,
		Balls:      ls.Balls,
		Strikes:    ls.Strikes,
		Outs:       ls.Outs,
		OnFirst:    ls.Offense.First != nil,
		OnSecond:   ls.Offense.Second != nil,
		OnThird:    ls.Offense.Third != nil,
		HomeTeam:   feed.GameData.Teams.Home.Name,
		AwayTeam:   feed.GameData.Teams.Away.Name,
		HomeRuns:   ls.Teams.Home.Runs,
		AwayRuns:   ls.Teams.Away.Runs,
		HomeHits:   ls.Teams.Home.Hits,
		AwayHits:   ls.Teams.Away.Hits,
		UpdatedAt:  time.Now().UTC(),
	}
	if b := feed.LiveData.Plays.CurrentPlay.Matchup.Batter; b.ID > 0 {
		lc.Batter = &domain.PlayerRef{ID: b.ID, Name: b.FullName}
	}
	if p := feed.LiveData.Plays.CurrentPlay.Matchup.Pitcher; p.ID > 0 {
		lc.Pitcher = &domain.PlayerRef{ID: p.ID, Name: p.FullName}
	}
	return lc, nil
}

type statsResponse struct {
	Stats []struct {
		Splits []struct {
			Stat statLine `json:"stat"`
		} `json:"splits"`
	} `json:"stats"`
}

type statLine struct {
	HomeRuns    *int   `json:"homeRuns"`
	RBI         *int   `json:"rbi"`
	StolenBases *int   `json:"stolenBases"`
	Runs        *int   `json:"runs"`
	Hits        *int   `json:"hits"`
	StrikeOuts  *int   `json:"strikeOuts"`
	Wins        *int   `json:"wins"`
	Saves       *int   `json:"saves"`
	AVG         string `json:"avg"`
	OPS         string `json:"ops"`
	ERA         string `json:"era"`
}

// SeasonStats fetches a player's season aggregate line for one stat group.
func (c *Client) SeasonStats(ctx context.Context, playerID int64, season int, group domain.StatGroup) (domain.SeasonStats, error) {
	query := url.Values{}
	query.Set("stats", "season")
	query.Set("season", strconv.Itoa(season))
	query.Set("group", string(group))

	var resp statsResponse
	path := fmt.Sprintf("/api/v1/people/%d/stats", playerID)
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return domain.SeasonStats{}, err
	}
	if len(resp.Stats) == 0 || len(resp.Stats[0].Splits) == 0 {
		return domain.SeasonStats{}, fmt.Errorf("no season stats for player %d season %d", playerID, season)
	}
	s := resp.Stats[0].Splits[0].Stat
	return domain.SeasonStats{
		HomeRuns:    s.HomeRuns,
		RBI:         s.RBI,
		StolenBases: s.StolenBases,
		Runs:        s.Runs,
		Hits:        s.Hits,
		StrikeOuts:  s.StrikeOuts,
		Wins:        s.Wins,
		Saves:       s.Saves,
		AVG:         s.AVG,
		OPS:         s.OPS,
		ERA:         s.ERA,
	}, nil
}

type scheduleResponse struct {
	Dates []struct {
		Date  string `json:"date"`
		Games []struct {
			GamePk   int64     `json:"gamePk"`
			GameDate time.Time `json:"gameDate"`
			Status   struct {
				DetailedState string `json:"detailedState"`
			} `json:"status"`
			Teams struct {
				Home struct {
					Team struct {
						Name string `json:"name"`
					} `json:"team"`
				} `json:"home"`
				Away struct {
					Team struct {
						Name string `json:"name"`
					} `json:"team"`
				} `json:"away"`
			} `json:"teams"`
		} `json:"games"`
	} `json:"dates"`
}

// Schedule lists games for a date (YYYY-MM-DD).
func (c *Client) Schedule(ctx context.Context, date string) ([]domain.Game, error) {
	query := url.Values{}
	query.Set("sportId", "1")
	query.Set("date", date)

	var resp scheduleResponse
	if err := c.getJSON(ctx, "/api/v1/schedule", query, &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var games []domain.Game
	for _, d := range resp.Dates {
		for _, g := range d.Games {
			games = append(games, domain.Game{
				GamePk:    g.GamePk,
				Date:      d.Date,
				HomeTeam:  g.Teams.Home.Team.Name,
				AwayTeam:  g.Teams.Away.Team.Name,
				Status:    g.Status.DetailedState,
				StartTime: g.GameDate,
				UpdatedAt: now,
			})
		}
	}
	return games, nil
}
