package orden

import (
	"fmt"
	"strconv"
	"strings"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"

	"gorm.io/gorm"
)

// codigoMaxAttempts 编号唯一冲突的有界重试次数，耗尽后整个创建失败。
const codigoMaxAttempts = 3

// nextCodigo 按年份取当前最大序列 +1，生成 ORD-<año>-<secuencia>。
// 候选编号在插入前计算，并发竞争由唯一索引 + 外层重试兜底。
// 序列超过 9999 后会出五位数，先按长度再按字典序才是数值序。
func nextCodigo(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("ORD-%d-", year)
	var ultimos []string
	err := tx.Model(&model.Order{}).Unscoped().
		Where("codigo LIKE ?", prefix+"%").
		Order("LENGTH(codigo) DESC, codigo DESC").
		Limit(1).
		Pluck("codigo", &ultimos).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if len(ultimos) > 0 {
		last := ultimos[0]
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", fmt.Errorf("codigo existente malformado %q: %w", last, err)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// retryOnUniqueConflict 小型有界重试组合子："生成候选 -> 尝试插入"，
// 仅在 UNIQUE 冲突时重试，其余错误原样透传。
func retryOnUniqueConflict(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !errorsLikeUnique(err) {
			return err
		}
	}
	return errs.Conflict("codigo_agotado",
		"no se pudo asignar un codigo unico tras %d intentos", attempts)
}

// errorsLikeUnique 以字符串嗅探识别 UNIQUE 约束冲突（sqlite/postgres 文案均含 unique）。
func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique") || strings.Contains(s, "duplicate")
}
