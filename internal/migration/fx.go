package migration

import (
	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	"github.com/maiscriancaoficial/affiliates/internal/config"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	groupdomain "github.com/maiscriancaoficial/affiliates/internal/group/domain"
	"github.com/maiscriancaoficial/affiliates/internal/seed"
	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql/sqlite development setups lean on gorm's migrator.
			if err := conn.AutoMigrate(
				&configdomain.GlobalConfig{},
				&groupdomain.Group{},
				&affiliatedomain.Affiliate{},
				&commissiondomain.Event{},
				&withdrawaldomain.Request{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureGlobalConfig(conn)
	}),
)
