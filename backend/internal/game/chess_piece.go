package game

import (
	"roomie/backend/internal/core/domain/entity"
)

const piecePawn = "pawn"

// ChessPiece описание отдельной фигуры. Событиями не управляется: всю игру ведет доска.
type ChessPiece struct {
	id      string
	enabled bool
	targets []string

	pieceType    string
	team         string
	gridPosition GridPosition
}

// NewChessPiece создает фигуру из config.pieceType, config.team и config.gridPosition
func NewChessPiece(def entity.BehaviorDefinition, deps *Dependencies) (Behavior, error) {
	cfg := def.Config
	return &ChessPiece{
		id:           def.BehaviorID,
		enabled:      def.IsEnabled(),
		targets:      append([]string(nil), def.TargetInstanceIDs...),
		pieceType:    stringOr(cfg, "pieceType", piecePawn),
		team:         stringOr(cfg, "team", teamWhite),
		gridPosition: gridOr(cfg, "gridPosition", GridPosition{}),
	}, nil
}

func (p *ChessPiece) ID() string                { return p.id }
func (p *ChessPiece) Type() entity.BehaviorType { return entity.BehaviorChessPiece }
func (p *ChessPiece) Enabled() bool             { return p.enabled }

func (p *ChessPiece) PieceType() string          { return p.pieceType }
func (p *ChessPiece) Team() string               { return p.team }
func (p *ChessPiece) GridPosition() GridPosition { return p.gridPosition }

func (p *ChessPiece) Update(delta float64)               {}
func (p *ChessPiece) HandleEvent(event entity.GameEvent) {}
func (p *ChessPiece) Destroy()                           {}

// LegalMoves допустимые клетки для этой фигуры
func (p *ChessPiece) LegalMoves() []GridPosition {
	return LegalMoves(p.pieceType, p.team, p.gridPosition)
}

// LegalMoves возвращает клетки, куда может пойти фигура.
// Реализована только пешка: на одну клетку вперед или на две со стартовой линии.
// Взятия по диагонали и остальные фигуры не поддерживаются.
func LegalMoves(pieceType, team string, pos GridPosition) []GridPosition {
	var moves []GridPosition

	switch pieceType {
	case piecePawn:
		direction := 1
		if team != teamWhite {
			direction = -1
		}
		moves = append(moves, GridPosition{X: pos.X, Y: pos.Y + direction})

		if (team == teamWhite && pos.Y == 1) || (team == teamBlack && pos.Y == 6) {
			moves = append(moves, GridPosition{X: pos.X, Y: pos.Y + direction*2})
		}
	}

	return moves
}
