package remote

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// toDomain 使用 copier 将数据库行按同名字段转换为领域模型，指针字段深拷贝
func toDomain[D any, M any](m *M) (*D, error) {
	d := new(D)
	if err := copier.CopyWithOption(d, m, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "copy model")
	}
	return d, nil
}
