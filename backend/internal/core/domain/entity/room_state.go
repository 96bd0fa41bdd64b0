package entity

// RoomSchemaVersion версия формата RoomState
const RoomSchemaVersion = 1

// PlayerState положение игрока в комнате
type PlayerState struct {
	Position            Vector3 `json:"position"`
	Rotation            Vector3 `json:"rotation"`
	ActiveAvatarAssetID string  `json:"activeAvatarAssetId,omitempty"`
}

// RoomSettings настройки комнаты
type RoomSettings struct {
	RoomRadius float64 `json:"roomRadius,omitempty"`
	Skybox     string  `json:"skybox,omitempty"`
	Gravity    float64 `json:"gravity,omitempty"`
}

// RoomState снимок комнаты: формы, экземпляры с живыми трансформациями и поведения
type RoomState struct {
	RoomID        string                 `json:"roomId"`
	OwnerUserID   string                 `json:"ownerUserId,omitempty"`
	CreatedAt     string                 `json:"createdAt"`
	UpdatedAt     string                 `json:"updatedAt"`
	SchemaVersion int                    `json:"schemaVersion"`
	Shapes        []ShapeDefinition      `json:"shapes"`
	Instances     []SceneObjectInstance  `json:"instances"`
	Behaviors     []BehaviorDefinition   `json:"behaviors"`
	PlayerState   PlayerState            `json:"playerState"`
	Settings      *RoomSettings          `json:"settings,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
