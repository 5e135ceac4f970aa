package state

var (
	tokenBalancePrefix   = []byte("token/balance:")
	tokenAllowancePrefix = []byte("token/allowance:")
	tokenExemptPrefix    = []byte("token/fee-exempt:")
	tokenSupplyKeyRaw    = []byte("token/supply")
	tokenFeesKeyRaw      = []byte("token/fees")
	tokenPausedKeyRaw    = []byte("token/paused")

	stakingPositionsPrefix   = []byte("staking/positions:")
	stakingCheckpointsPrefix = []byte("staking/checkpoints:")
	stakingRewardPoolKeyRaw  = []byte("staking/reward-pool")
	stakingTotalKeyRaw       = []byte("staking/total-staked")
	stakingSeqKeyRaw         = []byte("staking/checkpoint-seq")

	timelockOperationPrefix = []byte("timelock/op:")
	timelockRolePrefix      = []byte("timelock/role:")
	timelockDelayKeyRaw     = []byte("timelock/min-delay")

	governanceProposalPrefix  = []byte("gov/proposal:")
	governanceVotePrefix      = []byte("gov/vote:")
	governanceVoteIndexPrefix = []byte("gov/vote-index:")

	treasuryAllocationPrefix = []byte("treasury/allocation:")
	treasurySpentPrefix      = []byte("treasury/spent:")
	treasuryCategoriesKeyRaw = []byte("treasury/categories")
)
