package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

// ErrNilBlueprint blueprint не передан
var ErrNilBlueprint = errors.New("blueprint is nil")

// BehaviorRegistrar принимает записи поведений из blueprint'а
type BehaviorRegistrar interface {
	RegisterBehavior(def entity.BehaviorDefinition) error
}

// Reconciler применяет blueprint к сцене инкрементально: новые формы
// регистрирует, экземпляры создает или обновляет, поведения передает движку.
// Ошибка одного элемента записывается в результат и не прерывает остальные.
type Reconciler struct {
	Scene     world.SceneSink
	Factory   world.RenderableFactory
	Shapes    *world.ShapeRegistry
	Instances *world.InstanceRegistry
	Behaviors BehaviorRegistrar
	Logger    *log.Logger
}

// Apply применяет blueprint и возвращает итог. Сообщение blueprint'а
// возвращается всегда, даже при частичном провале.
func (r *Reconciler) Apply(ctx context.Context, bp *entity.BlueprintResponse) (result entity.ApplyBlueprintResult) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}

	result = entity.ApplyBlueprintResult{
		Success:            true,
		NewInstanceIDs:     []string{},
		UpdatedInstanceIDs: []string{},
		Errors:             []string{},
	}

	defer func() {
		if rec := recover(); rec != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("Blueprint application failed: %v", rec))
			logger.Printf("[applyBlueprint] КРИТИЧЕСКАЯ ОШИБКА: %v", rec)
		}
	}()

	if bp == nil {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("Blueprint application failed: %v", ErrNilBlueprint))
		logger.Printf("[applyBlueprint] КРИТИЧЕСКАЯ ОШИБКА: %v", ErrNilBlueprint)
		return result
	}
	result.Message = bp.Message

	// Формы регистрируются целиком до экземпляров: экземпляр может ссылаться
	// на форму из этого же blueprint'а
	logger.Printf("[applyBlueprint] Регистрация форм: %d", len(bp.Geometry.Shapes))
	for _, shape := range bp.Geometry.Shapes {
		if r.Shapes.Register(shape) {
			logger.Printf("[applyBlueprint]   ✓ форма %s", shape.ShapeID)
		} else {
			logger.Printf("[applyBlueprint]   • форма %s уже есть", shape.ShapeID)
		}
	}

	logger.Printf("[applyBlueprint] Обработка экземпляров: %d", len(bp.Geometry.Instances))
	for _, instance := range bp.Geometry.Instances {
		updated, err := r.processInstance(ctx, instance)
		if err != nil {
			msg := fmt.Sprintf("Failed to process instance %s: %v", instance.InstanceID, err)
			result.Errors = append(result.Errors, msg)
			if !errors.Is(err, world.ErrAssetFallback) {
				logger.Printf("[applyBlueprint]   ✗ %s", msg)
				continue
			}
			// Заглушка уже в сцене и в реестре, экземпляр считается созданным
			logger.Printf("[applyBlueprint]   ✗ %s (создана заглушка)", msg)
		}
		if updated {
			result.UpdatedInstanceIDs = append(result.UpdatedInstanceIDs, instance.InstanceID)
			logger.Printf("[applyBlueprint]   ✓ обновлен %s", instance.InstanceID)
		} else {
			result.NewInstanceIDs = append(result.NewInstanceIDs, instance.InstanceID)
			logger.Printf("[applyBlueprint]   ✓ создан %s", instance.InstanceID)
		}
	}

	logger.Printf("[applyBlueprint] Регистрация поведений: %d", len(bp.Behavior.Behaviors))
	for _, behavior := range bp.Behavior.Behaviors {
		if err := r.registerBehavior(behavior); err != nil {
			msg := fmt.Sprintf("Failed to register behavior %s: %v", behavior.BehaviorID, err)
			result.Errors = append(result.Errors, msg)
			logger.Printf("[applyBlueprint]   ✗ %s", msg)
			continue
		}
		logger.Printf("[applyBlueprint]   ✓ поведение %s (%s)", behavior.BehaviorID, behavior.Type)
	}

	if len(result.Errors) > 0 {
		result.Success = false
	}

	logger.Printf("[applyBlueprint] Готово: создано %d, обновлено %d, ошибок %d",
		len(result.NewInstanceIDs), len(result.UpdatedInstanceIDs), len(result.Errors))
	return result
}

// processInstance обновляет известный экземпляр или создает новый.
// Паника внутри одного экземпляра превращается в его ошибку.
func (r *Reconciler) processInstance(ctx context.Context, instance entity.SceneObjectInstance) (updated bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if r.Instances.Has(instance.InstanceID) {
		return true, r.updateInstance(instance)
	}
	return false, r.createInstance(ctx, instance)
}

func (r *Reconciler) createInstance(ctx context.Context, instance entity.SceneObjectInstance) error {
	shape, ok := r.Shapes.Get(instance.ShapeID)
	if !ok {
		return fmt.Errorf("shape %s: %w", instance.ShapeID, world.ErrShapeNotFound)
	}

	// Вместе с ErrAssetFallback фабрика отдает заглушку: она регистрируется
	// как обычный объект, а ошибка попадает в результат
	renderable, err := r.Factory.CreateRenderable(ctx, &shape)
	if err != nil && (renderable == nil || !errors.Is(err, world.ErrAssetFallback)) {
		return err
	}
	if renderable == nil {
		return fmt.Errorf("shape %s: %w", instance.ShapeID, world.ErrNilRenderable)
	}

	applyTransform(renderable, instance)
	applyFlags(renderable, instance)

	r.Scene.Add(renderable)
	if regErr := r.Instances.Register(instance, renderable); regErr != nil {
		r.Scene.Remove(renderable)
		return regErr
	}
	return err
}

// updateInstance сохраняет объект сцены: меняются только трансформация, флаги и запись
func (r *Reconciler) updateInstance(instance entity.SceneObjectInstance) error {
	renderable, ok := r.Instances.GetRenderable(instance.InstanceID)
	if !ok {
		return fmt.Errorf("instance %s: %w", instance.InstanceID, world.ErrInstanceNotFound)
	}

	applyTransform(renderable, instance)
	applyFlags(renderable, instance)

	return r.Instances.UpdateDefinition(instance.InstanceID, instance)
}

func (r *Reconciler) registerBehavior(def entity.BehaviorDefinition) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.Behaviors.RegisterBehavior(def)
}

// applyTransform ставит позицию, вращение и масштаб.
// Наличие w означает кватернион, его отсутствие углы Эйлера XYZ в радианах.
func applyTransform(renderable world.Renderable, instance entity.SceneObjectInstance) {
	renderable.SetPosition(instance.Position.Vec3())

	if instance.Rotation.IsQuaternion() {
		renderable.SetQuaternion(instance.Rotation.Quat())
	} else {
		renderable.SetEuler(instance.Rotation.Euler())
	}

	renderable.SetScale(instance.Scale.Vec3())
}

func applyFlags(renderable world.Renderable, instance entity.SceneObjectInstance) {
	renderable.SetVisible(instance.IsVisible())
	renderable.SetShadows(instance.CastsShadow(), instance.ReceivesShadow())
}
