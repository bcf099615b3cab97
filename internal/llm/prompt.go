package llm

// ExtractionPrompt is the fixed instruction sent with every image. Both
// providers get the same wording so their outputs project onto the same
// seven-key schema.
const ExtractionPrompt = "Extract golf shot data from this image. " +
	"Return ONLY valid JSON with these exact keys: ball_speed, launch_angle, " +
	"spin_rate, carry_distance, club_speed, smash_factor, apex_height. " +
	"Use null for missing values. Include units in a separate 'units' object."
