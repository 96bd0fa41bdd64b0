package game

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

const (
	pieceTag  = "piece"
	teamWhite = "white"
	teamBlack = "black"
)

// ChessBoard ведет очередь хода и выбор фигуры.
// Цели поведения это клетки доски; фигуры распознаются по тегу piece.
type ChessBoard struct {
	id      string
	enabled bool
	targets []string

	instances Instances
	logger    *log.Logger

	gridSize       int
	squareSize     float64
	highlightScale float64
	captureDepth   float64

	currentTurn     string
	selectedPieceID string
}

// NewChessBoard создает доску с очередью хода из config.currentTurn
func NewChessBoard(def entity.BehaviorDefinition, deps *Dependencies) (Behavior, error) {
	defaults := world.GetChessConfig()
	cfg := def.Config

	return &ChessBoard{
		id:             def.BehaviorID,
		enabled:        def.IsEnabled(),
		targets:        append([]string(nil), def.TargetInstanceIDs...),
		instances:      deps.Instances,
		logger:         deps.Logger,
		gridSize:       int(numberOr(cfg, "gridSize", float64(defaults.GridSize))),
		squareSize:     numberOr(cfg, "squareSize", defaults.SquareSize),
		highlightScale: defaults.HighlightScale,
		captureDepth:   defaults.CaptureDepth,
		currentTurn:    stringOr(cfg, "currentTurn", teamWhite),
	}, nil
}

func (b *ChessBoard) ID() string                { return b.id }
func (b *ChessBoard) Type() entity.BehaviorType { return entity.BehaviorChessBoard }
func (b *ChessBoard) Enabled() bool             { return b.enabled }

// CurrentTurn команда, которая ходит сейчас
func (b *ChessBoard) CurrentTurn() string { return b.currentTurn }

// SelectedPieceID выбранная фигура или пустая строка
func (b *ChessBoard) SelectedPieceID() string { return b.selectedPieceID }

func (b *ChessBoard) GridSize() int       { return b.gridSize }
func (b *ChessBoard) SquareSize() float64 { return b.squareSize }

func (b *ChessBoard) Update(delta float64) {}

func (b *ChessBoard) HandleEvent(event entity.GameEvent) {
	if event.Type != entity.EventClick {
		return
	}

	clicked, ok := b.instances.GetDefinition(event.InstanceID)
	if ok && clicked.HasTag(pieceTag) {
		team, _ := clicked.Metadata["team"].(string)
		if team == b.currentTurn {
			// Выбор своей фигуры, в том числе повторный, ход не передает
			b.selectedPieceID = event.InstanceID
			b.logger.Printf("[ChessBoard] %s: выбрана фигура %s (%s)", b.id, b.selectedPieceID, team)
			b.highlight(b.selectedPieceID)
		} else if b.selectedPieceID != "" {
			b.attemptCapture(event.InstanceID)
		}
		return
	}

	if b.selectedPieceID != "" {
		b.attemptMove(event.Position)
	}
}

// highlight сбрасывает масштаб всех фигур и увеличивает выбранную
func (b *ChessBoard) highlight(pieceID string) {
	for _, piece := range b.instances.FindByTag(pieceTag) {
		b.instances.UpdateRenderable(piece.Definition.InstanceID, func(r world.Renderable) {
			r.SetScale(mgl64.Vec3{1, 1, 1})
		})
	}
	if pieceID == "" {
		return
	}
	s := b.highlightScale
	b.instances.UpdateRenderable(pieceID, func(r world.Renderable) {
		r.SetScale(mgl64.Vec3{s, s, s})
	})
}

// attemptMove переносит выбранную фигуру в точку клика без проверки правил
func (b *ChessBoard) attemptMove(target *entity.Vector3) {
	defer b.deselect()

	piece, ok := b.selectedPiece()
	if !ok || target == nil {
		return
	}

	pos := piece.Position()
	piece.SetPosition(mgl64.Vec3{target.X, pos[1], target.Z})
	b.logger.Printf("[ChessBoard] %s: фигура %s перемещена в (%.2f, %.2f)", b.id, b.selectedPieceID, target.X, target.Z)
	b.switchTurn()
}

// attemptCapture ставит выбранную фигуру на место взятой и уводит взятую под пол
func (b *ChessBoard) attemptCapture(targetID string) {
	defer b.deselect()

	piece, ok := b.selectedPiece()
	if !ok {
		return
	}
	pieceDef, _ := b.instances.GetDefinition(b.selectedPieceID)
	target, ok := b.instances.GetRenderable(targetID)
	if !ok {
		return
	}
	targetDef, ok := b.instances.GetDefinition(targetID)
	if !ok || sameTeam(pieceDef, targetDef) {
		return
	}

	piece.SetPosition(target.Position())
	sunk := target.Position()
	sunk[1] = b.captureDepth
	target.SetVisible(false)
	target.SetPosition(sunk)

	team, _ := targetDef.MetadataString("team")
	b.logger.Printf("[ChessBoard] %s: взята фигура %s (%s)", b.id, targetID, team)
	b.switchTurn()
}

func (b *ChessBoard) selectedPiece() (world.Renderable, bool) {
	if b.selectedPieceID == "" {
		return nil, false
	}
	piece, ok := b.instances.GetRenderable(b.selectedPieceID)
	if !ok {
		return nil, false
	}
	if _, ok := b.instances.GetDefinition(b.selectedPieceID); !ok {
		return nil, false
	}
	return piece, true
}

func (b *ChessBoard) deselect() {
	b.selectedPieceID = ""
	b.highlight("")
}

func (b *ChessBoard) switchTurn() {
	if b.currentTurn == teamWhite {
		b.currentTurn = teamBlack
	} else {
		b.currentTurn = teamWhite
	}
	b.logger.Printf("[ChessBoard] %s: ход %s", b.id, b.currentTurn)
}

func (b *ChessBoard) Destroy() {}

func sameTeam(a, b entity.SceneObjectInstance) bool {
	ta, okA := a.MetadataString("team")
	tb, okB := b.MetadataString("team")
	return okA == okB && ta == tb
}
