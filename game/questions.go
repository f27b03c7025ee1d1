package game

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// PlaceholderQuestion is the degraded question substituted when a
// provider fails: sentinel target, empty answer set. The round proceeds
// on schedule; a stuck provider must never halt the room's clock.
func PlaceholderQuestion(mode GameMode) Question {
	q := Question{DisplayText: "Question unavailable, hang tight for the next round"}
	if mode == ModeMultipleChoice {
		q.Target.Options = []string{}
		q.Target.CorrectIndex = -1
	}
	return q
}

// MathQuestionSource generates number-line and cartesian-plane questions
// locally: a small arithmetic expression whose result the players place
// on the line, or a random point to locate on the plane.
type MathQuestionSource struct {
	rng *rand.Rand
	mu  sync.Mutex
}

func NewMathQuestionSource() *MathQuestionSource {
	return &MathQuestionSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *MathQuestionSource) Next(_ context.Context, mode GameMode) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case ModeNumberLine:
		return s.numberLineQuestion(), nil
	case ModeCartesianPlane:
		return s.cartesianPlaneQuestion(), nil
	}
	return Question{}, ErrGameModeUnknown
}

func (s *MathQuestionSource) numberLineQuestion() Question {
	a := s.rng.Intn(20) - 10
	b := s.rng.Intn(20) - 10
	op := []string{"+", "-", "×", "÷"}[s.rng.Intn(4)]

	var answer float64
	switch op {
	case "+":
		answer = float64(a + b)
	case "-":
		answer = float64(a - b)
	case "×":
		answer = float64(a * b)
	case "÷":
		for b == 0 {
			b = s.rng.Intn(20) - 10
		}
		answer = float64(a) / float64(b)
	}

	return Question{
		DisplayText: fmt.Sprintf("Where is %d %s %d on the number line?", a, op, b),
		Target:      Target{Value: answer},
	}
}

func (s *MathQuestionSource) cartesianPlaneQuestion() Question {
	x := s.rng.Intn(20) - 10
	y := s.rng.Intn(20) - 10
	return Question{
		DisplayText: fmt.Sprintf("Where is the point (%d, %d) on the Cartesian plane?", x, y),
		Target:      Target{Point: Point{X: float64(x), Y: float64(y)}},
	}
}

// TriviaQuestionSource fetches multiple-choice questions from an
// opentdb-style HTTP API.
type TriviaQuestionSource struct {
	client  *http.Client
	baseURL string
	rng     *rand.Rand
	mu      sync.Mutex
}

func NewTriviaQuestionSource(baseURL string, timeout time.Duration) *TriviaQuestionSource {
	return &TriviaQuestionSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type triviaResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

func (s *TriviaQuestionSource) Next(ctx context.Context, mode GameMode) (Question, error) {
	if mode != ModeMultipleChoice {
		return Question{}, ErrGameModeUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return Question{}, fmt.Errorf("building trivia request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Question{}, fmt.Errorf("fetching trivia question: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Question{}, fmt.Errorf("trivia api returned status %d", resp.StatusCode)
	}

	var decoded triviaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Question{}, fmt.Errorf("decoding trivia response: %w", err)
	}
	if decoded.ResponseCode != 0 || len(decoded.Results) == 0 {
		return Question{}, fmt.Errorf("trivia api returned no results (code %d)", decoded.ResponseCode)
	}

	result := decoded.Results[0]
	correct := html.UnescapeString(result.CorrectAnswer)
	options := []string{correct}
	for _, incorrect := range result.IncorrectAnswers {
		options = append(options, html.UnescapeString(incorrect))
	}

	s.mu.Lock()
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	s.mu.Unlock()

	correctIndex := 0
	for i, option := range options {
		if option == correct {
			correctIndex = i
			break
		}
	}

	return Question{
		DisplayText: html.UnescapeString(result.Question),
		Target:      Target{Options: options, CorrectIndex: correctIndex},
	}, nil
}

// CompositeQuestionSource routes each mode to its provider.
type CompositeQuestionSource struct {
	byMode map[GameMode]QuestionSource
}

func NewCompositeQuestionSource(math *MathQuestionSource, trivia *TriviaQuestionSource) *CompositeQuestionSource {
	return &CompositeQuestionSource{byMode: map[GameMode]QuestionSource{
		ModeNumberLine:     math,
		ModeCartesianPlane: math,
		ModeMultipleChoice: trivia,
	}}
}

func (c *CompositeQuestionSource) Next(ctx context.Context, mode GameMode) (Question, error) {
	source, ok := c.byMode[mode]
	if !ok {
		return Question{}, ErrGameModeUnknown
	}
	return source.Next(ctx, mode)
}
