package game

import "math"

// Scorer maps a guess and the round's target to a score. One variant per
// game mode; adding a mode means adding a Scorer, not touching the room.
type Scorer interface {
	Score(target Target, guess Guess) float64
}

func ScorerFor(mode GameMode) (Scorer, error) {
	switch mode {
	case ModeNumberLine:
		return numberLineScorer{}, nil
	case ModeCartesianPlane:
		return cartesianPlaneScorer{}, nil
	case ModeMultipleChoice:
		return multipleChoiceScorer{}, nil
	}
	return nil, ErrGameModeUnknown
}

// distanceScore is the shared closer-is-better formula: 100 for a perfect
// guess, minus 10 per unit of distance, clamped at zero.
func distanceScore(distance float64) float64 {
	return math.Max(0, math.Round(100-10*distance))
}

type numberLineScorer struct{}

func (numberLineScorer) Score(target Target, guess Guess) float64 {
	return distanceScore(math.Abs(target.Value - guess.Value))
}

type cartesianPlaneScorer struct{}

func (cartesianPlaneScorer) Score(target Target, guess Guess) float64 {
	dx := target.Point.X - guess.Point.X
	dy := target.Point.Y - guess.Point.Y
	return distanceScore(math.Hypot(dx, dy))
}

// multipleChoiceScorer scores a normalized click in [0,1]x[0,1] against a
// 2x2 grid of answer tiles. Tile i owns corner (i%2, i/2) and is worth +1
// if it holds the correct answer, -1 otherwise; the score is the bilinear
// blend of the four corner values at the click point, rounded to two
// decimals. The blend near tile boundaries is deliberate: a click on the
// edge between two tiles earns a mix of both values instead of a hard
// cutoff. The full tile value is guaranteed only at the tile's corner of
// the unit square.
type multipleChoiceScorer struct{}

func (multipleChoiceScorer) Score(target Target, guess Guess) float64 {
	values := [4]float64{-1, -1, -1, -1}
	if target.CorrectIndex >= 0 && target.CorrectIndex < len(values) {
		values[target.CorrectIndex] = 1
	}
	x, y := guess.Point.X, guess.Point.Y
	blend := values[0]*(1-x)*(1-y) +
		values[1]*x*(1-y) +
		values[2]*(1-x)*y +
		values[3]*x*y
	return math.Round(blend*100) / 100
}

// decodeGuess validates the raw packet against the room's mode and
// produces the tagged Guess. Wrong-shape payloads come back as
// ErrMalformedGuess and are dropped by the caller.
func decodeGuess(mode GameMode, packet ClientPacket) (Guess, error) {
	switch mode {
	case ModeNumberLine:
		if packet.Value == nil {
			return Guess{}, ErrMalformedGuess
		}
		return Guess{Value: *packet.Value}, nil
	case ModeCartesianPlane:
		if packet.X == nil || packet.Y == nil {
			return Guess{}, ErrMalformedGuess
		}
		return Guess{Point: Point{X: *packet.X, Y: *packet.Y}}, nil
	case ModeMultipleChoice:
		if packet.X == nil || packet.Y == nil {
			return Guess{}, ErrMalformedGuess
		}
		if *packet.X < 0 || *packet.X > 1 || *packet.Y < 0 || *packet.Y > 1 {
			return Guess{}, ErrMalformedGuess
		}
		return Guess{Point: Point{X: *packet.X, Y: *packet.Y}}, nil
	}
	return Guess{}, ErrGameModeUnknown
}
